package blockgraph

// ThresholdKind distinguishes the PoW difficulty bucket a block root
// requires, per spec §9's note that epoch-2 send/receive thresholds
// diverge. The exact historical constants are an ecosystem parameter,
// not specified here (spec §9 Open Questions); WorkThresholds below is
// the adoption point for whatever values a deployment standardizes on.
type ThresholdKind uint8

const (
	ThresholdSend ThresholdKind = iota
	ThresholdReceive
)

// WorkThresholds maps (epoch, kind) to the minimum Digest64 value a
// valid block's work must exceed. Populated with the conventional
// Nano mainnet constants; a deployment may override at construction.
var WorkThresholds = map[Epoch]map[ThresholdKind]uint64{
	Epoch0: {
		ThresholdSend:    0xffffffc000000000,
		ThresholdReceive: 0xffffffc000000000,
	},
	Epoch1: {
		ThresholdSend:    0xffffffc000000000,
		ThresholdReceive: 0xffffffc000000000,
	},
	Epoch2: {
		ThresholdSend:    0xfffffff800000000,
		ThresholdReceive: 0xfffffe0000000000,
	},
}

// CheckWork validates that digest_64(root||work) exceeds the
// configured threshold for the given epoch/kind, per spec §4.2: the
// block is rejected unless digest_64(root, work) < DIFFICULTY_THRESHOLD
// when read as "distance above threshold" — Nano's actual rule is a
// minimum, i.e. the work value must be >= threshold.
func CheckWork(root Hash, work Work, epoch Epoch, kind ThresholdKind) bool {
	byKind, ok := WorkThresholds[epoch]
	if !ok {
		byKind = WorkThresholds[Epoch2]
	}
	threshold, ok := byKind[kind]
	if !ok {
		threshold = byKind[ThresholdSend]
	}
	return Digest64(root, work) >= threshold
}
