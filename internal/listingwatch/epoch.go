package listingwatch

const (
	// MainnetGenesisTime is the unix timestamp of the Cardano mainnet
	// (Byron) genesis block.
	MainnetGenesisTime int64 = 1506203091

	// EpochDurationSeconds is the length of one ledger epoch (5 days).
	EpochDurationSeconds int64 = 432000
)

// EpochAt derives the ledger epoch containing the given block time.
func EpochAt(blockTime, genesisTime, epochDuration int64) int64 {
	if epochDuration <= 0 || blockTime < genesisTime {
		return 0
	}

	return (blockTime - genesisTime) / epochDuration
}
