package container

import "github.com/coreos/pkg/capnslog"

var plog = capnslog.NewPackageLogger("github.com/arloliu/limg", "container")
