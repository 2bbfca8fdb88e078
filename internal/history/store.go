package history

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/models"
)

// Store is an immutable, time-ordered snapshot of team performances and rating
// observations. It is populated once and shared read-only by concurrent readers.
type Store struct {
	id        uuid.UUID
	builtAt   time.Time
	byTeam    map[string][]models.PerformanceRecord
	ratings   map[string][]models.RatingSnapshot
	all       []models.PerformanceRecord
	firstDate time.Time
	lastDate  time.Time
}

// NewStore validates records and ratings and freezes them into a snapshot.
// Dates are normalized to day granularity; a second record for the same team on
// the same day is rejected.
func NewStore(records []models.PerformanceRecord, ratings []models.RatingSnapshot) (*Store, error) {
	s := &Store{
		id:      uuid.New(),
		builtAt: time.Now().UTC(),
		byTeam:  make(map[string][]models.PerformanceRecord),
		ratings: make(map[string][]models.RatingSnapshot),
		all:     make([]models.PerformanceRecord, 0, len(records)),
	}

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		rec.Team = strings.ToUpper(rec.Team)
		rec.Opponent = strings.ToUpper(rec.Opponent)
		rec.GameDate = models.NormalizeDate(rec.GameDate)
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		key := rec.Team + "|" + rec.GameDate.Format(models.DateLayout)
		if _, dup := seen[key]; dup {
			return nil, models.NewDataError(rec.Team, "duplicate record on %s", rec.GameDate.Format(models.DateLayout))
		}
		seen[key] = struct{}{}
		s.byTeam[rec.Team] = append(s.byTeam[rec.Team], rec)
		s.all = append(s.all, rec)
	}

	for team, recs := range s.byTeam {
		sort.Slice(recs, func(i, j int) bool { return recs[i].GameDate.Before(recs[j].GameDate) })
		s.byTeam[team] = recs
	}
	sort.SliceStable(s.all, func(i, j int) bool {
		if s.all[i].GameDate.Equal(s.all[j].GameDate) {
			return s.all[i].Team < s.all[j].Team
		}
		return s.all[i].GameDate.Before(s.all[j].GameDate)
	})
	if len(s.all) > 0 {
		s.firstDate = s.all[0].GameDate
		s.lastDate = s.all[len(s.all)-1].GameDate
	}

	for _, r := range ratings {
		r.Team = strings.ToUpper(r.Team)
		r.AsOf = models.NormalizeDate(r.AsOf)
		if r.Team == "" || r.AsOf.IsZero() {
			return nil, models.NewDataError(r.Team, "rating snapshot missing team or date")
		}
		s.ratings[r.Team] = append(s.ratings[r.Team], r)
	}
	for team, rs := range s.ratings {
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].AsOf.Before(rs[j].AsOf) })
		s.ratings[team] = rs
	}

	return s, nil
}

// ID identifies the snapshot
func (s *Store) ID() uuid.UUID { return s.id }

// BuiltAt is when the snapshot was frozen
func (s *Store) BuiltAt() time.Time { return s.builtAt }

// Len is the number of performance records
func (s *Store) Len() int { return len(s.all) }

// DateRange returns the first and last game dates held
func (s *Store) DateRange() (time.Time, time.Time) { return s.firstDate, s.lastDate }

// HasTeam reports whether any record exists for team
func (s *Store) HasTeam(team string) bool {
	_, ok := s.byTeam[strings.ToUpper(team)]
	return ok
}

// Teams returns the team codes present, sorted
func (s *Store) Teams() []string {
	out := make([]string, 0, len(s.byTeam))
	for team := range s.byTeam {
		out = append(out, team)
	}
	sort.Strings(out)
	return out
}

// Records returns every record ordered by date then team
func (s *Store) Records() []models.PerformanceRecord {
	out := make([]models.PerformanceRecord, len(s.all))
	copy(out, s.all)
	return out
}

// RecordsFor returns the team's records dated strictly before before, ascending
func (s *Store) RecordsFor(team string, before time.Time) []models.PerformanceRecord {
	recs := s.byTeam[strings.ToUpper(team)]
	n := s.cutoff(recs, before)
	out := make([]models.PerformanceRecord, n)
	copy(out, recs[:n])
	return out
}

// LastN returns up to n of the team's most recent records strictly before before, ascending
func (s *Store) LastN(team string, before time.Time, n int) []models.PerformanceRecord {
	if n <= 0 {
		return nil
	}
	recs := s.byTeam[strings.ToUpper(team)]
	end := s.cutoff(recs, before)
	start := end - n
	if start < 0 {
		start = 0
	}
	out := make([]models.PerformanceRecord, end-start)
	copy(out, recs[start:end])
	return out
}

// SeasonRecords returns the team's records in the season containing before, dated strictly before it
func (s *Store) SeasonRecords(team string, before time.Time) []models.PerformanceRecord {
	start := SeasonStart(before)
	recs := s.RecordsFor(team, before)
	i := sort.Search(len(recs), func(i int) bool { return !recs[i].GameDate.Before(start) })
	return recs[i:]
}

// HeadToHead pools a-vs-b and b-vs-a meetings strictly before before and returns
// up to n of the most recent, ascending, from a's perspective. A meeting recorded
// by both teams appears once, taken from a's record; a meeting recorded only by b
// is mirrored, carrying result, venue and margin but no box score.
func (s *Store) HeadToHead(a, b string, before time.Time, n int) []models.PerformanceRecord {
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	byDate := make(map[time.Time]models.PerformanceRecord)
	for _, rec := range s.RecordsFor(b, before) {
		if rec.Opponent == a {
			byDate[rec.GameDate] = mirror(rec)
		}
	}
	for _, rec := range s.RecordsFor(a, before) {
		if rec.Opponent == b {
			byDate[rec.GameDate] = rec
		}
	}

	pooled := make([]models.PerformanceRecord, 0, len(byDate))
	for _, rec := range byDate {
		pooled = append(pooled, rec)
	}
	sort.Slice(pooled, func(i, j int) bool { return pooled[i].GameDate.Before(pooled[j].GameDate) })
	if n > 0 && len(pooled) > n {
		pooled = pooled[len(pooled)-n:]
	}
	return pooled
}

// GameOn returns the team's record dated exactly on date
func (s *Store) GameOn(team string, date time.Time) (models.PerformanceRecord, bool) {
	recs := s.byTeam[strings.ToUpper(team)]
	day := models.NormalizeDate(date)
	i := s.cutoff(recs, day)
	if i < len(recs) && recs[i].GameDate.Equal(day) {
		return recs[i], true
	}
	return models.PerformanceRecord{}, false
}

// RatingBefore returns the latest rating observed strictly before before
func (s *Store) RatingBefore(team string, before time.Time) (models.RatingSnapshot, bool) {
	rs := s.ratings[strings.ToUpper(team)]
	day := models.NormalizeDate(before)
	i := sort.Search(len(rs), func(i int) bool { return !rs[i].AsOf.Before(day) })
	if i == 0 {
		return models.RatingSnapshot{}, false
	}
	return rs[i-1], true
}

// cutoff returns the index of the first record dated on or after before
func (s *Store) cutoff(recs []models.PerformanceRecord, before time.Time) int {
	day := models.NormalizeDate(before)
	return sort.Search(len(recs), func(i int) bool { return !recs[i].GameDate.Before(day) })
}

func mirror(rec models.PerformanceRecord) models.PerformanceRecord {
	result := models.ResultWin
	if rec.Won() {
		result = models.ResultLoss
	}
	return models.PerformanceRecord{
		Team:      rec.Opponent,
		Opponent:  rec.Team,
		GameDate:  rec.GameDate,
		IsHome:    !rec.IsHome,
		Result:    result,
		PlusMinus: -rec.PlusMinus,
	}
}

// SeasonStart returns August 1 of the season containing d. Seasons run from
// autumn into the following spring.
func SeasonStart(d time.Time) time.Time {
	year := d.Year()
	if d.Month() < time.August {
		year--
	}
	return time.Date(year, time.August, 1, 0, 0, 0, 0, time.UTC)
}
