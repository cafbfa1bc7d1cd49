package tx

// ShardOf routes a key to its owning shard. Routing goes through the key's
// lock tag, so keys sharing a tag always land on the same shard.
func ShardOf(key string, nshards uint32) ShardId {
	if nshards == 0 {
		panic("tx: zero shard count")
	}
	return ShardId(uint64(NewLockTag(key).Fingerprint()) % uint64(nshards))
}

// BuildShardIndex splits a command's arguments between shards without
// copying them. Each key resolved by ki owns its whole step group, the key
// plus the arguments that travel with it (MSET advances by two, so a group
// is a key/value pair); the bonus key forms a group of its own. Adjacent
// groups landing on the same shard merge into one slice.
//
// The returned slice has one view per shard, empty for shards the command
// does not touch; the second result is the number of shards touched.
func BuildShardIndex(args []string, ki KeyIndex, nshards uint32) ([]ShardArgs, uint32, error) {
	if nshards == 0 {
		panic("tx: zero shard count")
	}
	positions, err := ki.Resolve(uint32(len(args)))
	if err != nil {
		return nil, 0, err
	}

	perShard := make([][]IndexSlice, nshards)
	bonusAt := -1
	if ki.Bonus != nil {
		bonusAt = len(positions) - 1
	}
	for i, pos := range positions {
		width := ki.Step
		if i == bonusAt {
			width = 1
		}
		end := pos + width
		if end > uint32(len(args)) {
			end = uint32(len(args))
		}
		sid := ShardOf(args[pos], nshards)
		sl := perShard[sid]
		if n := len(sl); n > 0 && sl[n-1].End == pos {
			sl[n-1].End = end
		} else {
			sl = append(sl, IndexSlice{Begin: pos, End: end})
		}
		perShard[sid] = sl
	}

	out := make([]ShardArgs, nshards)
	var touched uint32
	for sid := range out {
		if len(perShard[sid]) > 0 {
			touched++
		}
		out[sid] = NewShardArgs(args, perShard[sid])
	}
	return out, touched, nil
}
