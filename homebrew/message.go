package homebrew

import (
	"fmt"
	"runtime"

	lmr "github.com/pd0mz/go-lmr"
)

// Software and package identifiers sent in the repeater configuration.
var (
	SoftwareID = fmt.Sprintf("%s:go-lmr:%s", runtime.GOOS, lmr.Version)
	PackageID  = fmt.Sprintf("%s:go-lmr:%s-%s", runtime.GOOS, lmr.Version, runtime.GOARCH)
)

// Command prefixes.
var (
	DMRData         = []byte("DMRD")
	MasterNAK       = []byte("MSTNAK")
	MasterACK       = []byte("MSTACK")
	RepeaterACK     = []byte("RPTACK")
	RepeaterLogin   = []byte("RPTL")
	RepeaterKey     = []byte("RPTK")
	RepeaterConfig  = []byte("RPTC")
	RepeaterPing    = []byte("RPTPING")
	MasterPing      = []byte("MSTPING")
	MasterPong      = []byte("MSTPONG")
	RepeaterPong    = []byte("RPTPONG")
	MasterClosing   = []byte("MSTCL")
	RepeaterClosing = []byte("RPTCL")
)
