// Package section defines the low-level binary structures of the limg container.
//
// A container is a count prefix followed by records written back to back.
// Each record starts with a fixed-size header carrying a back-link to the
// previous record's header, which threads the file into a singly linked
// list running backward:
//
//	┌──────────────────────────────────────────────┐
//	│ Count prefix (4 bytes)                       │
//	│  - declared record count, 0 while recording  │
//	├──────────────────────────────────────────────┤  offset 4
//	│ Record 1 header (8 bytes)                    │
//	│  - BackLink (4 bytes): 0                     │
//	│  - PayloadLength (4 bytes)                   │
//	│ Record 1 payload (PayloadLength bytes)       │
//	├──────────────────────────────────────────────┤  offset B
//	│ Record 2 header                              │
//	│  - BackLink: 4                               │
//	│  - PayloadLength                             │
//	│ Record 2 payload                             │
//	├──────────────────────────────────────────────┤
//	│ Record 3 header                              │
//	│  - BackLink: B                               │
//	│  ...                                         │
//	└──────────────────────────────────────────────┘
//
// There is no forward link: the next record always starts right after the
// current payload. There is no magic number, footer or checksum either.
//
// All integers are little-endian unsigned 32-bit values. The functions in
// this package are pure and safe for concurrent use.
package section
