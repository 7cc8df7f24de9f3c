package schedule

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"zapislon/internal/db"
	"zapislon/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := zerolog.Nop()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewStore(database, &logger)
}

func TestUpsertWeeklyEntryValidation(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry model.WeeklySchedule
		field string
	}{
		{
			name:  "non-positive master",
			entry: model.WeeklySchedule{MasterID: 0, DayOfWeek: 1, WorkStart: "09:00", WorkEnd: "18:00"},
			field: "master_id",
		},
		{
			name:  "weekday out of range",
			entry: model.WeeklySchedule{MasterID: 1, DayOfWeek: 7, WorkStart: "09:00", WorkEnd: "18:00"},
			field: "day_of_week",
		},
		{
			name:  "malformed work start",
			entry: model.WeeklySchedule{MasterID: 1, DayOfWeek: 1, WorkStart: "9am", WorkEnd: "18:00"},
			field: "work_start",
		},
		{
			name:  "reversed work window",
			entry: model.WeeklySchedule{MasterID: 1, DayOfWeek: 1, WorkStart: "18:00", WorkEnd: "09:00"},
			field: "work_start",
		},
		{
			name:  "zero-length work window",
			entry: model.WeeklySchedule{MasterID: 1, DayOfWeek: 1, WorkStart: "09:00", WorkEnd: "09:00"},
			field: "work_start",
		},
		{
			name:  "break start without end",
			entry: model.WeeklySchedule{MasterID: 1, DayOfWeek: 1, WorkStart: "09:00", WorkEnd: "18:00", BreakStart: "13:00"},
			field: "break_start",
		},
		{
			name:  "reversed break",
			entry: model.WeeklySchedule{MasterID: 1, DayOfWeek: 1, WorkStart: "09:00", WorkEnd: "18:00", BreakStart: "14:00", BreakEnd: "13:00"},
			field: "break_start",
		},
		{
			name:  "break outside work window",
			entry: model.WeeklySchedule{MasterID: 1, DayOfWeek: 1, WorkStart: "09:00", WorkEnd: "18:00", BreakStart: "08:00", BreakEnd: "09:30"},
			field: "break_start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.UpsertWeeklyEntry(ctx, &tt.entry)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUpsertWeeklyEntryReplaces(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first := &model.WeeklySchedule{MasterID: 1, DayOfWeek: 1, WorkStart: "09:00", WorkEnd: "18:00"}
	require.NoError(t, store.UpsertWeeklyEntry(ctx, first))

	second := &model.WeeklySchedule{MasterID: 1, DayOfWeek: 1, WorkStart: "10:00", WorkEnd: "16:00"}
	require.NoError(t, store.UpsertWeeklyEntry(ctx, second))

	week, err := store.ListWeek(ctx, 1)
	require.NoError(t, err)
	require.Len(t, week, 1, "only one active entry per weekday")
	assert.Equal(t, "10:00", week[0].WorkStart)
	assert.Equal(t, "16:00", week[0].WorkEnd)
}

func TestListWeekOrdersAndScopes(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for _, day := range []int{3, 1, 5} {
		entry := &model.WeeklySchedule{MasterID: 1, DayOfWeek: day, WorkStart: "09:00", WorkEnd: "18:00"}
		require.NoError(t, store.UpsertWeeklyEntry(ctx, entry))
	}
	other := &model.WeeklySchedule{MasterID: 2, DayOfWeek: 1, WorkStart: "12:00", WorkEnd: "20:00"}
	require.NoError(t, store.UpsertWeeklyEntry(ctx, other))

	week, err := store.ListWeek(ctx, 1)
	require.NoError(t, err)
	require.Len(t, week, 3)
	assert.Equal(t, []int{1, 3, 5}, []int{week[0].DayOfWeek, week[1].DayOfWeek, week[2].DayOfWeek})
}

func TestGetEffectiveDay(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// Next Monday, far enough out that a day-off is never "in the past".
	date := time.Now().AddDate(0, 0, 7)
	for date.Weekday() != time.Monday {
		date = date.AddDate(0, 0, 1)
	}

	entry := &model.WeeklySchedule{MasterID: 1, DayOfWeek: int(time.Monday), WorkStart: "09:00", WorkEnd: "18:00", BreakStart: "13:00", BreakEnd: "14:00"}
	require.NoError(t, store.UpsertWeeklyEntry(ctx, entry))

	day, err := store.GetEffectiveDay(ctx, 1, date)
	require.NoError(t, err)
	require.True(t, day.IsWorkable())
	assert.Equal(t, "09:00", day.Schedule.WorkStart)
	assert.True(t, day.Schedule.HasBreak())

	// A day-off overrides the weekly entry.
	off, err := store.AddDayOff(ctx, 1, date, "vacation")
	require.NoError(t, err)

	day, err = store.GetEffectiveDay(ctx, 1, date)
	require.NoError(t, err)
	assert.False(t, day.IsWorkable())
	require.NotNil(t, day.DayOff)
	assert.Equal(t, "vacation", day.DayOff.Reason)

	// Removing the day-off restores the weekly entry.
	require.NoError(t, store.RemoveDayOff(ctx, off.ID))
	day, err = store.GetEffectiveDay(ctx, 1, date)
	require.NoError(t, err)
	assert.True(t, day.IsWorkable())

	// A weekday with no entry resolves to an empty, unworkable day.
	tuesday := date.AddDate(0, 0, 1)
	day, err = store.GetEffectiveDay(ctx, 1, tuesday)
	require.NoError(t, err)
	assert.False(t, day.IsWorkable())
	assert.Nil(t, day.DayOff)
	assert.Nil(t, day.Schedule)
}

func TestAddDayOffRejections(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	var verr *model.ValidationError

	_, err := store.AddDayOff(ctx, 1, time.Now().AddDate(0, 0, -1), "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)

	date := time.Now().AddDate(0, 0, 14)
	_, err = store.AddDayOff(ctx, 1, date, "")
	require.NoError(t, err)

	_, err = store.AddDayOff(ctx, 1, date, "again")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)
}

func TestListDayOffs(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Now().AddDate(0, 0, 7)
	for _, offset := range []int{0, 3, 60} {
		_, err := store.AddDayOff(ctx, 1, base.AddDate(0, 0, offset), "")
		require.NoError(t, err)
	}

	offs, err := store.ListDayOffs(ctx, 1, base.AddDate(0, 0, -1), base.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Len(t, offs, 2, "the day-off outside the range is excluded")
}

func TestDeactivateWeeklyEntry(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	entry := &model.WeeklySchedule{MasterID: 1, DayOfWeek: 2, WorkStart: "09:00", WorkEnd: "18:00"}
	require.NoError(t, store.UpsertWeeklyEntry(ctx, entry))

	week, err := store.ListWeek(ctx, 1)
	require.NoError(t, err)
	require.Len(t, week, 1)

	require.NoError(t, store.DeactivateWeeklyEntry(ctx, week[0].ID))

	week, err = store.ListWeek(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, week)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		minutes int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"9", 0, true},
		{"nine:00", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.minutes, got)
		})
	}
}
