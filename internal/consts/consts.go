package consts

const (
	GroundNode  = "0"   // reference node label
	GroundAlias = "gnd" // alternate reference node label

	NodePrefix   = "v" // node voltage symbols: v1, v2, ...
	BranchPrefix = "i" // source branch current symbols: iV1, ...

	FreqSymbol = "s" // complex frequency used by reactive stamps
)
