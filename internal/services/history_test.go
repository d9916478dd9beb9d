package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-system/internal/entities"
)

func s(v string) *string { return &v }

func snapshotsOf(ref entities.EntityRef, versions ...map[string]*string) []entities.HistorySnapshot {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	out := make([]entities.HistorySnapshot, 0, len(versions))
	for i, fields := range versions {
		out = append(out, entities.HistorySnapshot{
			ID: uint64(i + 1), Ref: ref, Version: i + 1, Fields: fields,
			ChangedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return out
}

func TestDiffSnapshots_RoundTrip(t *testing.T) {
	ref := entities.EntityRef{Type: entities.EntityApartment, ID: 1}
	snaps := snapshotsOf(ref,
		map[string]*string{"price": s("100"), "comment": s(""), "street_id": nil},
		map[string]*string{"price": s("120"), "comment": s(""), "street_id": s("5")},
		map[string]*string{"price": s("120"), "comment": s("торг"), "street_id": nil},
		map[string]*string{"price": s("90"), "comment": s("торг"), "street_id": nil, "is_deleted": s("true")},
	)

	for _, order := range []DiffOrder{OldestFirst, NewestFirst} {
		diffs := DiffSnapshots(snaps, order)
		assert.Equal(t, snaps[len(snaps)-1].Fields, ApplyDiffs(snaps[0].Fields, diffs))
	}
}

func TestDiffSnapshots_Order(t *testing.T) {
	ref := entities.EntityRef{Type: entities.EntityClient, ID: 2}
	snaps := snapshotsOf(ref,
		map[string]*string{"status": s("IN_SEARCH"), "fio": s("А")},
		map[string]*string{"status": s("WITH_SHOW"), "fio": s("А")},
		map[string]*string{"status": s("WITH_SHOW"), "fio": s("А")},
		map[string]*string{"status": s("DECIDED"), "fio": s("Б")},
	)

	oldest := DiffSnapshots(snaps, OldestFirst)
	require.Len(t, oldest, 3, "снимок без изменений не даёт строк")
	assert.Equal(t, []int{2, 4, 4}, []int{oldest[0].Version, oldest[1].Version, oldest[2].Version})
	assert.Equal(t, "fio", oldest[1].Field)

	newest := DiffSnapshots(snaps, NewestFirst)
	require.Len(t, newest, 3)
	assert.Equal(t, 4, newest[0].Version)
	assert.Equal(t, "fio", newest[0].Field, "внутри версии поля по имени")
	assert.Equal(t, 2, newest[2].Version)
	assert.Nil(t, DiffSnapshots(snaps[:1], OldestFirst))
}

func entry(id uint64, at time.Time) entities.HistoryEntry {
	return entities.HistoryEntry{Snapshot: entities.HistorySnapshot{ID: id, ChangedAt: at}}
}

func TestMergeNewestFirst(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := []entities.HistoryEntry{entry(9, t0.Add(5*time.Hour)), entry(3, t0.Add(2*time.Hour)), entry(1, t0)}
	b := []entities.HistoryEntry{entry(8, t0.Add(4*time.Hour)), entry(4, t0.Add(2*time.Hour))}
	c := []entities.HistoryEntry{entry(10, t0.Add(6*time.Hour))}

	merged := MergeNewestFirst(a, nil, b, c)
	got := make([]uint64, 0, len(merged))
	for _, e := range merged {
		got = append(got, e.Snapshot.ID)
	}
	// при равном времени выше снимок с большим id
	assert.Equal(t, []uint64{10, 9, 8, 4, 3, 1}, got)
	assert.Empty(t, MergeNewestFirst())
}

func TestReportRow(t *testing.T) {
	e := entities.HistoryEntry{
		Snapshot: entities.HistorySnapshot{
			Ref: entities.EntityRef{Type: entities.EntityLand, ID: 4}, Version: 2, ChangeType: "~",
			Fields: map[string]*string{"price": s("10"), "purpose": s("ИЖС")},
		},
		Previous: map[string]*string{"price": s("12"), "purpose": s("ИЖС")},
	}
	row := reportRow(e)
	assert.Equal(t, "land", row.Kind)
	assert.EqualValues(t, 4, row.ListingID)
	require.Len(t, row.Changes, 1)
	assert.Equal(t, "price", row.Changes[0].Field)
}

func TestParseDiffOrder(t *testing.T) {
	assert.Equal(t, NewestFirst, ParseDiffOrder("desc"))
	assert.Equal(t, OldestFirst, ParseDiffOrder(""))
}
