package nakama

const (
	// RpcCreateTable is the Nakama RPC id clients call to open a table.
	RpcCreateTable = "create_table"

	// MatchNameBridge is the authoritative match handler name registered with Nakama.
	MatchNameBridge = "bridge_table"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpPlayerAction int64 = 1
	OpRequestState int64 = 2
	OpResetMatch   int64 = 3

	// Server -> Client
	OpState int64 = 101
	OpError int64 = 102 // sent to the sender only
)

const tickRate = 5
