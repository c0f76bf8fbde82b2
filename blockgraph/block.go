package blockgraph

// StateSubtype further classifies a state block by inspecting its
// balance delta and link field, per spec §4.2.
type StateSubtype uint8

const (
	StateSubtypeSend StateSubtype = iota
	StateSubtypeReceive
	StateSubtypeChange
	StateSubtypeEpoch
)

// Block is the tagged sum of the five variants. Every field is used
// by at most a subset of Kind values; Hashables/Root/Source/Destination
// dispatch per spec §4.2 rather than exposing per-variant structs, so
// that ledger/election code can hold one concrete type regardless of
// variant (spec §9: "Implement the five variants as a tagged sum").
type Block struct {
	Kind Kind

	// Legacy fields.
	Previous          Hash // send, receive, change; zero for open
	LegacyDestination Account
	Balance           Amount // send only (legacy)
	SourceHash     Hash   // open, receive
	Representative Account
	Account        Account // open only (legacy)

	// State-block fields (state subsumes all of the above).
	StateAccount Account
	StateBalance Amount
	Link         Hash

	Signature Signature
	Work      Work
}

// Hashables returns the byte sequence that is digested to form the
// block hash, in the field order specified in spec §3.
func (b *Block) Hashables() []byte {
	switch b.Kind {
	case KindSend:
		out := make([]byte, 0, 32+32+16)
		out = append(out, b.Previous[:]...)
		out = append(out, b.LegacyDestination[:]...)
		out = append(out, b.Balance[:]...)
		return out
	case KindReceive:
		out := make([]byte, 0, 32+32)
		out = append(out, b.Previous[:]...)
		out = append(out, b.SourceHash[:]...)
		return out
	case KindOpen:
		out := make([]byte, 0, 32+32+32)
		out = append(out, b.SourceHash[:]...)
		out = append(out, b.Representative[:]...)
		out = append(out, b.Account[:]...)
		return out
	case KindChange:
		out := make([]byte, 0, 32+32)
		out = append(out, b.Previous[:]...)
		out = append(out, b.Representative[:]...)
		return out
	case KindState:
		out := make([]byte, 0, 32*5+16)
		out = append(out, b.StateAccount[:]...)
		out = append(out, b.Previous[:]...)
		out = append(out, b.Representative[:]...)
		out = append(out, b.StateBalance[:]...)
		out = append(out, b.Link[:]...)
		return out
	default:
		return nil
	}
}

// Hash is the pure function of Hashables: hash = digest_256(hashables).
func (b *Block) Hash() Hash { return Digest256(b.Hashables()) }

// Root returns the slot identifier over which elections are held:
// previous if non-zero, else the account.
func (b *Block) Root() Hash {
	switch b.Kind {
	case KindOpen:
		return Hash(b.Account)
	case KindState:
		if !b.Previous.IsZero() {
			return b.Previous
		}
		return Hash(b.StateAccount)
	default:
		if !b.Previous.IsZero() {
			return b.Previous
		}
		return Hash{}
	}
}

// Source returns the source-hash field for open/receive blocks and the
// Link field for every state block; zero otherwise. The state subtype
// is not checked (it depends on the previous balance, which the block
// alone does not carry), so for a state send, change or epoch block the
// result is not a source hash.
func (b *Block) Source() Hash {
	switch b.Kind {
	case KindOpen, KindReceive:
		return b.SourceHash
	case KindState:
		return b.Link
	default:
		return Hash{}
	}
}

// Destination returns the destination account for send blocks and the
// Link field, read as an account, for every state block; zero account
// otherwise. The state subtype is not checked, so for a state receive,
// change or epoch block the result is not a destination.
func (b *Block) Destination() Account {
	switch b.Kind {
	case KindSend:
		return b.LegacyDestination
	case KindState:
		return Account(b.Link)
	default:
		return Account{}
	}
}

// AccountOf returns the account this block belongs to: the Account
// field for open/state blocks, else zero (legacy non-open blocks
// carry no account in-band and rely on the frontier index).
func (b *Block) AccountOf() Account {
	switch b.Kind {
	case KindOpen:
		return b.Account
	case KindState:
		return b.StateAccount
	default:
		return Account{}
	}
}

// BalanceOf returns the balance field for variants that carry one
// (open has none; legacy open's balance is implicit from its source).
func (b *Block) BalanceOf() (Amount, bool) {
	switch b.Kind {
	case KindSend:
		return b.Balance, true
	case KindState:
		return b.StateBalance, true
	default:
		return Amount{}, false
	}
}

// PredecessorValid implements spec §4.2's predecessor_valid: legacy
// blocks require prev.Kind to not be a state block; state blocks
// accept any previous; open blocks require prev to be missing (nil).
func (b *Block) PredecessorValid(prev *Block) bool {
	if b.Kind == KindOpen {
		return prev == nil
	}
	if prev == nil {
		return false
	}
	if b.Kind == KindState {
		return true
	}
	return prev.Kind != KindState
}

// StateSubtypeOf classifies a state block by balance delta and link,
// per spec §4.3 step 6. prevBalance is the account's balance before
// this block (zero if the account does not yet exist); epochLink is
// the configured epoch marker for the account's current (or next)
// epoch.
func StateSubtypeOf(b *Block, prevBalance Amount, epochLink Hash) StateSubtype {
	switch b.StateBalance.Cmp(prevBalance) {
	case -1:
		return StateSubtypeSend
	case 1:
		return StateSubtypeReceive
	default:
		if b.Link == epochLink {
			return StateSubtypeEpoch
		}
		return StateSubtypeChange
	}
}
