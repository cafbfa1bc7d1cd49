package journal

import (
	"sync"

	"github.com/emberdb/ember/kv/tx"
	"github.com/pingcap/errors"
	"go.uber.org/atomic"
)

const defaultBufferSize = 1024

// Journal owns the LSN allocator for one store. Every shard-side recorder
// appends through the same instance, which is what turns interleaved shard
// execution into a single totally ordered log: entries for one transaction
// keep the same relative order for every observer, across all shards.
//
// An entry is given its LSN only once the sink accepted the item, so a
// rejected append leaves no gap behind, and an entry that did receive an LSN
// is never dropped or reordered afterwards.
type Journal struct {
	mu       sync.Mutex
	lsn      *atomic.Uint64 // next LSN to assign
	curDbId  tx.DbIndex     // last journaled database, drives Select emission
	sink     Sink
	cbs      []registeredCb
	nextCbId uint32

	// Ring of the most recent items, for consumers catching up without
	// replaying the full stream.
	ring     []JournalItem
	ringHead int

	// Synthetic transaction ids for expiry entries, which are not part of
	// any client-issued command. Allocated from the top of the id space so
	// they stay clear of coordinator-assigned ids.
	expireTxId *atomic.Uint64

	// ExpiryLockCheck, when set, lets RecordExpiry assert that the calling
	// thread holds the key's lock. Wired up by debug builds and tests.
	ExpiryLockCheck func(db tx.DbIndex, key string) bool
}

type registeredCb struct {
	id uint32
	cb ChangeCallback
}

// NewJournal creates a journal keeping bufSize recent items, pushing every
// accepted item to sink. A nil sink journals locally only.
func NewJournal(bufSize int, sink Sink) *Journal {
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	return &Journal{
		lsn:        atomic.NewUint64(1),
		curDbId:    tx.InvalidDbId,
		sink:       sink,
		ring:       make([]JournalItem, 0, bufSize),
		expireTxId: atomic.NewUint64(1 << 63),
	}
}

// NextLsn returns the LSN the next accepted entry will receive.
func (j *Journal) NextLsn() LSN {
	return LSN(j.lsn.Load())
}

// RegisterOnChange attaches cb to the journal; it will observe every
// accepted item in LSN order. The returned id removes it again.
func (j *Journal) RegisterOnChange(cb ChangeCallback) uint32 {
	j.mu.Lock()
	defer j.mu.Unlock()
	id := j.nextCbId
	j.nextCbId++
	j.cbs = append(j.cbs, registeredCb{id: id, cb: cb})
	return id
}

// RemoveOnChange detaches a callback registered earlier.
func (j *Journal) RemoveOnChange(id uint32) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, rc := range j.cbs {
		if rc.id == id {
			j.cbs = append(j.cbs[:i], j.cbs[i+1:]...)
			return
		}
	}
}

// GetRecent returns the buffered recent items, oldest first.
func (j *Journal) GetRecent() []JournalItem {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]JournalItem, 0, len(j.ring))
	out = append(out, j.ring[j.ringHead:]...)
	out = append(out, j.ring[:j.ringHead]...)
	return out
}

// TriggerWriteToSink forces a flush with no new journal content: a ping item
// carrying the current LSN goes straight to the sink and the callbacks. No
// LSN is allocated.
func (j *Journal) TriggerWriteToSink() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := Serialize(&Entry{EntryBase: EntryBase{Opcode: OpPing}})
	if err != nil {
		return err
	}
	item := JournalItem{Lsn: LSN(j.lsn.Load()), Opcode: OpPing, Data: data}
	if j.sink != nil {
		if err := j.sink.Append(&item, true); err != nil {
			return errors.Annotate(err, "journal sink append")
		}
	}
	for _, rc := range j.cbs {
		rc.cb(&item, true)
	}
	return nil
}

// Close appends the stream-end marker and detaches the sink and callbacks.
func (j *Journal) Close() error {
	if err := j.appendEntry(&Entry{EntryBase: EntryBase{Opcode: OpFin}}); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sink = nil
	j.cbs = nil
	return nil
}

// appendEntry serializes e, allocates its LSN and fans the item out. When the
// journaled database differs from the last one, a Select entry is emitted
// first so replay always applies the command to the right database.
func (j *Journal) appendEntry(e *Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch e.Opcode {
	case OpCommand, OpMultiCommand, OpExpired:
		if e.DbId != j.curDbId {
			sel := &Entry{EntryBase: EntryBase{Opcode: OpSelect, DbId: e.DbId, Slot: e.Slot}}
			if err := j.appendLocked(sel); err != nil {
				return err
			}
			j.curDbId = e.DbId
		}
	}
	return j.appendLocked(e)
}

func (j *Journal) appendLocked(e *Entry) error {
	e.Lsn = LSN(j.lsn.Load())
	data, err := Serialize(e)
	if err != nil {
		return err
	}
	item := JournalItem{Lsn: e.Lsn, Opcode: e.Opcode, Data: data, Slot: e.Slot}
	if j.sink != nil {
		if err := j.sink.Append(&item, false); err != nil {
			return errors.Annotate(err, "journal sink append")
		}
	}
	j.lsn.Inc()
	j.pushRing(item)
	for _, rc := range j.cbs {
		rc.cb(&item, false)
	}
	entryCounter.WithLabelValues(e.Opcode.String()).Inc()
	bytesCounter.Add(float64(len(data)))
	return nil
}

func (j *Journal) pushRing(item JournalItem) {
	if len(j.ring) < cap(j.ring) {
		j.ring = append(j.ring, item)
		return
	}
	j.ring[j.ringHead] = item
	j.ringHead = (j.ringHead + 1) % cap(j.ring)
}
