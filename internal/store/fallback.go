package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/raincheck/internal/observability"
)

const (
	opUpsert = "upsert"
	opDelete = "delete"

	// DefaultRemoteTimeout bounds a single remote call before the local path takes over.
	DefaultRemoteTimeout = 8 * time.Second
)

// outboxEntry journals a write that reached only the local store.
// There is at most one entry per record; the latest operation wins.
type outboxEntry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	RecordID  string    `json:"record_id"`
	Op        string    `json:"op"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// FallbackBackend writes to the remote store first and falls back to a local durable store.
//
// Reconciliation policy:
//   - writes that land remotely are mirrored into the local store (best effort)
//     and the local copy is marked as a remote mirror;
//   - writes that land only locally are journaled in the local outbox;
//   - a successful remote read is the base view; journaled local upserts replace
//     or extend it by id and journaled local deletes hide rows, so local-only
//     writes are never lost from reads;
//   - a local row missing from the remote is pruned only if it is a remote mirror.
//     Any other un-journaled local row was written while no remote was attached;
//     it is journaled and kept;
//   - a failed remote read serves the local store, which already contains
//     every journaled write;
//   - Sync replays the journal to the remote. An entry is cleared only if no
//     newer local write re-journaled the record while it was being replayed.
type FallbackBackend struct {
	remote  Backend
	local   Backend
	timeout time.Duration
	log     *zap.Logger

	// journalMu serializes local-only writes with their journal entries,
	// mirror refreshes and journal clears.
	journalMu sync.Mutex

	mu      sync.Mutex
	lastSeq int64
}

// NewFallbackBackend composes remote and local. A zero timeout uses DefaultRemoteTimeout.
func NewFallbackBackend(remote, local Backend, timeout time.Duration, log *zap.Logger) *FallbackBackend {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FallbackBackend{
		remote:  remote,
		local:   local,
		timeout: timeout,
		log:     log.Named("store"),
	}
}

func (f *FallbackBackend) Name() string {
	return fmt.Sprintf("%s+%s", f.remote.Name(), f.local.Name())
}

func (f *FallbackBackend) List(ctx context.Context, kind Kind) ([]Record, error) {
	rctx, cancel := context.WithTimeout(ctx, f.timeout)
	remoteRecs, rerr := f.remote.List(rctx, kind)
	cancel()
	if rerr == nil {
		return f.reconcile(ctx, kind, remoteRecs), nil
	}

	localRecs, lerr := f.local.List(ctx, kind)
	if lerr != nil {
		f.log.Error("remote and local list failed",
			zap.String("kind", string(kind)), zap.NamedError("remote", rerr), zap.NamedError("local", lerr))
		return nil, fmt.Errorf("%w: list %s", ErrStorageUnavailable, kind)
	}
	f.log.Warn("remote list failed; serving local store", zap.String("kind", string(kind)), zap.Error(rerr))
	return tag(localRecs, OriginLocal), nil
}

// reconcile overlays local-only writes on a remote snapshot and brings the
// local mirror in line with it.
func (f *FallbackBackend) reconcile(ctx context.Context, kind Kind, remote []Record) []Record {
	f.journalMu.Lock()
	defer f.journalMu.Unlock()

	local, err := f.local.List(ctx, kind)
	if err != nil {
		f.log.Warn("local list failed; serving remote snapshot", zap.String("kind", string(kind)), zap.Error(err))
		return tag(remote, OriginRemote)
	}
	pending, err := f.pendingFor(ctx, kind)
	if err != nil {
		// Without the journal there is no telling which local rows are unsynced.
		f.log.Warn("outbox read failed; leaving local mirror untouched", zap.String("kind", string(kind)), zap.Error(err))
		return mergeView(remote, local, pending)
	}

	f.adoptOrphans(ctx, kind, remote, local, pending)
	f.refreshMirror(ctx, kind, remote, local, pending)
	return mergeView(remote, local, pending)
}

func (f *FallbackBackend) Insert(ctx context.Context, kind Kind, rec Record) (Record, error) {
	// Fix the id and timestamp up front so both paths store the same document.
	rec, err := prepare(rec)
	if err != nil {
		return Record{}, err
	}

	rctx, cancel := context.WithTimeout(ctx, f.timeout)
	stored, rerr := f.remote.Insert(rctx, kind, rec)
	cancel()
	if rerr == nil {
		f.mirror(ctx, kind, stored)
		return f.landed(kind, stored, OriginRemote), nil
	}

	f.log.Warn("remote insert failed; writing locally",
		zap.String("kind", string(kind)), zap.String("id", rec.ID), zap.Error(rerr))

	f.journalMu.Lock()
	defer f.journalMu.Unlock()
	rec.Origin = OriginLocal
	stored, lerr := f.local.Insert(ctx, kind, rec)
	if lerr != nil {
		return Record{}, f.unavailable("insert", kind, rerr, lerr)
	}
	if _, err := f.journal(ctx, kind, stored.ID, opUpsert); err != nil {
		return Record{}, f.unavailable("insert", kind, rerr, err)
	}
	return f.landed(kind, stored, OriginLocal), nil
}

func (f *FallbackBackend) Update(ctx context.Context, kind Kind, id string, fields Fields) (Record, error) {
	entry, hasPending := f.pendingEntry(ctx, kind, id)
	if hasPending && entry.Op == opDelete {
		return Record{}, ErrNotFound
	}
	if hasPending {
		// The record has unsynced local changes; keep mutating the local copy.
		return f.updateLocal(ctx, kind, id, fields, errors.New("record has unsynced local writes"))
	}

	rctx, cancel := context.WithTimeout(ctx, f.timeout)
	stored, rerr := f.remote.Update(rctx, kind, id, fields)
	cancel()
	if rerr == nil {
		f.mirror(ctx, kind, stored)
		return f.landed(kind, stored, OriginRemote), nil
	}
	if errors.Is(rerr, ErrNotFound) {
		return Record{}, ErrNotFound
	}

	f.log.Warn("remote update failed; writing locally",
		zap.String("kind", string(kind)), zap.String("id", id), zap.Error(rerr))
	return f.updateLocal(ctx, kind, id, fields, rerr)
}

func (f *FallbackBackend) updateLocal(ctx context.Context, kind Kind, id string, fields Fields, cause error) (Record, error) {
	f.journalMu.Lock()
	defer f.journalMu.Unlock()

	stored, lerr := f.local.Update(ctx, kind, id, fields)
	if lerr != nil {
		return Record{}, f.unavailable("update", kind, cause, lerr)
	}
	if _, err := f.journal(ctx, kind, id, opUpsert); err != nil {
		return Record{}, f.unavailable("update", kind, cause, err)
	}
	return f.landed(kind, stored, OriginLocal), nil
}

func (f *FallbackBackend) Delete(ctx context.Context, kind Kind, id string) error {
	entry, hasPending := f.pendingEntry(ctx, kind, id)
	if hasPending && entry.Op == opDelete {
		return ErrNotFound
	}

	var rerr error
	if hasPending {
		rerr = errors.New("record has unsynced local writes")
	} else {
		rctx, cancel := context.WithTimeout(ctx, f.timeout)
		rerr = f.remote.Delete(rctx, kind, id)
		cancel()
		if rerr == nil {
			if err := f.local.Delete(ctx, kind, id); err != nil && !errors.Is(err, ErrNotFound) {
				f.log.Warn("local mirror delete failed", zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
			}
			observability.StoreWrites.WithLabelValues(string(kind), string(OriginRemote)).Inc()
			return nil
		}
		if errors.Is(rerr, ErrNotFound) {
			return ErrNotFound
		}
		f.log.Warn("remote delete failed; deleting locally",
			zap.String("kind", string(kind)), zap.String("id", id), zap.Error(rerr))
	}

	f.journalMu.Lock()
	defer f.journalMu.Unlock()
	if lerr := f.local.Delete(ctx, kind, id); lerr != nil {
		return f.unavailable("delete", kind, rerr, lerr)
	}
	if _, err := f.journal(ctx, kind, id, opDelete); err != nil {
		return f.unavailable("delete", kind, rerr, err)
	}
	observability.StoreWrites.WithLabelValues(string(kind), string(OriginLocal)).Inc()
	return nil
}

// Sync replays journaled local-only writes to the remote in journal order.
// It stops at the first remote failure and returns how many entries were replayed.
func (f *FallbackBackend) Sync(ctx context.Context) (int, error) {
	entries, err := f.outbox(ctx)
	if err != nil {
		return 0, fmt.Errorf("read outbox: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	locals := make(map[Kind]map[string]Record)
	replayed := 0
	for _, e := range entries {
		if _, ok := locals[e.Kind]; !ok {
			recs, err := f.local.List(ctx, e.Kind)
			if err != nil {
				return replayed, fmt.Errorf("read local %s: %w", e.Kind, err)
			}
			byID := make(map[string]Record, len(recs))
			for _, r := range recs {
				byID[r.ID] = r
			}
			locals[e.Kind] = byID
		}

		rec, hasLocal := locals[e.Kind][e.RecordID]
		err = nil
		rctx, cancel := context.WithTimeout(ctx, f.timeout)
		switch {
		case e.Op == opDelete:
			err = f.remote.Delete(rctx, e.Kind, e.RecordID)
			if errors.Is(err, ErrNotFound) {
				err = nil
			}
		case hasLocal:
			out := rec
			out.Origin = ""
			_, err = f.remote.Insert(rctx, e.Kind, out)
		}
		cancel()

		if err != nil {
			observability.OutboxReplays.WithLabelValues("failed").Inc()
			return replayed, fmt.Errorf("replay %s %s/%s: %w", e.Op, e.Kind, e.RecordID, err)
		}
		if err := f.settle(ctx, e, rec, e.Op == opUpsert && hasLocal); err != nil {
			return replayed, err
		}
		observability.OutboxReplays.WithLabelValues("ok").Inc()
		replayed++
	}

	f.log.Info("outbox synced", zap.Int("replayed", replayed))
	return replayed, nil
}

// settle clears a replayed entry unless the record was re-journaled while the
// replay was in flight. A cleared upsert leaves its local copy marked as a mirror.
func (f *FallbackBackend) settle(ctx context.Context, e outboxEntry, rec Record, mirrored bool) error {
	f.journalMu.Lock()
	defer f.journalMu.Unlock()

	cur, ok := f.pendingEntry(ctx, e.Kind, e.RecordID)
	if !ok || cur.Seq != e.Seq {
		f.log.Debug("record changed during sync; keeping its journal entry",
			zap.String("kind", string(e.Kind)), zap.String("id", e.RecordID))
		return nil
	}
	if err := f.local.Delete(ctx, kindOutbox, e.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("clear outbox entry %s: %w", e.ID, err)
	}
	if mirrored {
		f.mirror(ctx, e.Kind, rec)
	}
	return nil
}

// Pending returns the number of journaled local-only writes.
func (f *FallbackBackend) Pending(ctx context.Context) (int, error) {
	entries, err := f.outbox(ctx)
	return len(entries), err
}

func (f *FallbackBackend) landed(kind Kind, rec Record, origin Origin) Record {
	observability.StoreWrites.WithLabelValues(string(kind), string(origin)).Inc()
	rec.Origin = origin
	return rec
}

func (f *FallbackBackend) unavailable(op string, kind Kind, remoteErr, localErr error) error {
	f.log.Error("remote and local write failed",
		zap.String("op", op), zap.String("kind", string(kind)),
		zap.NamedError("remote", remoteErr), zap.NamedError("local", localErr))
	return fmt.Errorf("%w: %s %s", ErrStorageUnavailable, op, kind)
}

func (f *FallbackBackend) mirror(ctx context.Context, kind Kind, rec Record) {
	rec.Origin = OriginRemote
	if _, err := f.local.Insert(ctx, kind, rec); err != nil {
		f.log.Warn("local mirror write failed", zap.String("kind", string(kind)), zap.String("id", rec.ID), zap.Error(err))
	}
}

// adoptOrphans journals un-journaled local rows that the remote lacks and that
// never came from it, so they are served and replayed like any local-only write.
func (f *FallbackBackend) adoptOrphans(ctx context.Context, kind Kind, remote, local []Record, pending map[string]outboxEntry) {
	remoteIDs := make(map[string]struct{}, len(remote))
	for _, r := range remote {
		remoteIDs[r.ID] = struct{}{}
	}
	for _, r := range local {
		if _, ok := remoteIDs[r.ID]; ok {
			continue
		}
		if _, ok := pending[r.ID]; ok || r.Origin == OriginRemote {
			continue
		}
		entry, err := f.journal(ctx, kind, r.ID, opUpsert)
		if err != nil {
			f.log.Warn("journal local-only record failed", zap.String("kind", string(kind)), zap.String("id", r.ID), zap.Error(err))
			continue
		}
		f.log.Info("journaled local-only record", zap.String("kind", string(kind)), zap.String("id", r.ID))
		pending[r.ID] = entry
	}
}

// refreshMirror brings the local copy in line with a fresh remote snapshot,
// leaving records with journaled writes untouched. Only remote mirrors are pruned.
func (f *FallbackBackend) refreshMirror(ctx context.Context, kind Kind, remote, local []Record, pending map[string]outboxEntry) {
	localByID := make(map[string]Record, len(local))
	for _, r := range local {
		localByID[r.ID] = r
	}
	remoteIDs := make(map[string]struct{}, len(remote))
	for _, r := range remote {
		remoteIDs[r.ID] = struct{}{}
		if _, ok := pending[r.ID]; ok {
			continue
		}
		norm, err := prepare(Record{ID: r.ID, Data: r.Data, CreatedAt: r.CreatedAt})
		if err != nil {
			continue
		}
		if cur, ok := localByID[r.ID]; ok && cur.Origin == OriginRemote && bytes.Equal(cur.Data, norm.Data) {
			continue
		}
		f.mirror(ctx, kind, norm)
	}
	for id, r := range localByID {
		if _, ok := remoteIDs[id]; ok || r.Origin != OriginRemote {
			continue
		}
		if _, ok := pending[id]; ok {
			continue
		}
		if err := f.local.Delete(ctx, kind, id); err != nil && !errors.Is(err, ErrNotFound) {
			f.log.Warn("local mirror prune failed", zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
		}
	}
}

// mergeView overlays journaled local writes on a remote snapshot.
func mergeView(remote, local []Record, pending map[string]outboxEntry) []Record {
	localByID := make(map[string]Record, len(local))
	for _, r := range local {
		localByID[r.ID] = r
	}

	out := make([]Record, 0, len(remote)+len(pending))
	seen := make(map[string]struct{}, len(remote))
	for _, r := range remote {
		seen[r.ID] = struct{}{}
		entry, ok := pending[r.ID]
		switch {
		case !ok:
			r.Origin = OriginRemote
			out = append(out, r)
		case entry.Op == opDelete:
			// deleted locally, not yet replayed
		default:
			if l, ok := localByID[r.ID]; ok {
				l.Origin = OriginLocal
				out = append(out, l)
			} else {
				r.Origin = OriginRemote
				out = append(out, r)
			}
		}
	}
	for id, entry := range pending {
		if _, ok := seen[id]; ok || entry.Op != opUpsert {
			continue
		}
		if l, ok := localByID[id]; ok {
			l.Origin = OriginLocal
			out = append(out, l)
		}
	}
	sortRecords(out)
	return out
}

func tag(recs []Record, origin Origin) []Record {
	for i := range recs {
		recs[i].Origin = origin
	}
	return recs
}

// journal records a local-only write. Callers hold journalMu.
func (f *FallbackBackend) journal(ctx context.Context, kind Kind, recordID, op string) (outboxEntry, error) {
	entry := outboxEntry{
		ID:        outboxID(kind, recordID),
		Kind:      kind,
		RecordID:  recordID,
		Op:        op,
		Seq:       f.nextSeq(),
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return outboxEntry{}, err
	}
	_, err = f.local.Insert(ctx, kindOutbox, Record{ID: entry.ID, Data: data, CreatedAt: entry.CreatedAt})
	return entry, err
}

func (f *FallbackBackend) nextSeq() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq := time.Now().UnixNano()
	if seq <= f.lastSeq {
		seq = f.lastSeq + 1
	}
	f.lastSeq = seq
	return seq
}

// outbox returns every journal entry in replay order.
func (f *FallbackBackend) outbox(ctx context.Context) ([]outboxEntry, error) {
	recs, err := f.local.List(ctx, kindOutbox)
	if err != nil {
		return nil, err
	}
	entries := make([]outboxEntry, 0, len(recs))
	for _, r := range recs {
		var e outboxEntry
		if err := json.Unmarshal(r.Data, &e); err != nil {
			f.log.Warn("skipping unreadable outbox entry", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	return entries, nil
}

func (f *FallbackBackend) pendingFor(ctx context.Context, kind Kind) (map[string]outboxEntry, error) {
	entries, err := f.outbox(ctx)
	if err != nil {
		return map[string]outboxEntry{}, err
	}
	out := make(map[string]outboxEntry)
	for _, e := range entries {
		if e.Kind == kind {
			out[e.RecordID] = e
		}
	}
	return out, nil
}

func (f *FallbackBackend) pendingEntry(ctx context.Context, kind Kind, id string) (outboxEntry, bool) {
	pending, err := f.pendingFor(ctx, kind)
	if err != nil {
		return outboxEntry{}, false
	}
	e, ok := pending[id]
	return e, ok
}

func outboxID(kind Kind, recordID string) string {
	return string(kind) + ":" + recordID
}
