package player

import "github.com/coreos/pkg/capnslog"

var plog = capnslog.NewPackageLogger("github.com/arloliu/limg", "player")
