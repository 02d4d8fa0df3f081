package progress

import "testing"

// season builds n episodes numbered 1..n with the given watched set.
func season(number, n int, watched ...int) Season {
	w := make(map[int]bool, len(watched))
	for _, e := range watched {
		w[e] = true
	}
	s := Season{Number: number}
	for i := 1; i <= n; i++ {
		s.Episodes = append(s.Episodes, Episode{Number: i, Watched: w[i]})
	}
	return s
}

func TestSummarize(t *testing.T) {
	t.Run("no seasons", func(t *testing.T) {
		got := Summarize(nil)
		if got.Percent != 0 || got.Last != nil || got.TotalEpisodes != 0 {
			t.Fatalf("got %+v, want zero summary", got)
		}
	})

	t.Run("seasons without episodes", func(t *testing.T) {
		got := Summarize([]Season{{Number: 1}, {Number: 2}})
		if got.Percent != 0 || got.Last != nil || got.TotalEpisodes != 0 {
			t.Fatalf("got %+v, want zero summary", got)
		}
	})

	t.Run("partial progress across seasons", func(t *testing.T) {
		got := Summarize([]Season{
			season(1, 5, 1, 2, 3),
			season(2, 5),
		})
		if got.Percent != 30 {
			t.Errorf("percent = %d, want 30", got.Percent)
		}
		if got.WatchedEpisodes != 3 || got.TotalEpisodes != 10 {
			t.Errorf("counts = %d/%d, want 3/10", got.WatchedEpisodes, got.TotalEpisodes)
		}
		if got.Last == nil || got.Last.Season != 1 || got.Last.Episode != 3 {
			t.Errorf("last = %+v, want {1 3}", got.Last)
		}
	})

	t.Run("last position prefers higher season", func(t *testing.T) {
		got := Summarize([]Season{
			season(1, 5, 1, 2, 3, 4, 5),
			season(2, 5, 1),
		})
		if got.Last == nil || got.Last.Season != 2 || got.Last.Episode != 1 {
			t.Fatalf("last = %+v, want {2 1}", got.Last)
		}
	})

	t.Run("episode order within a season is irrelevant", func(t *testing.T) {
		s := Season{Number: 1, Episodes: []Episode{
			{Number: 3, Watched: true},
			{Number: 1, Watched: true},
			{Number: 2, Watched: false},
		}}
		got := Summarize([]Season{s})
		if got.Last == nil || got.Last.Season != 1 || got.Last.Episode != 3 {
			t.Fatalf("last = %+v, want {1 3}", got.Last)
		}
	})

	t.Run("percent rounds half up", func(t *testing.T) {
		cases := []struct {
			watched, total, want int
		}{
			{1, 3, 33},
			{2, 3, 67},
			{1, 8, 13},
			{1, 2, 50},
			{3, 3, 100},
			{0, 7, 0},
		}
		for _, c := range cases {
			w := make([]int, 0, c.watched)
			for i := 1; i <= c.watched; i++ {
				w = append(w, i)
			}
			got := Summarize([]Season{season(1, c.total, w...)})
			if got.Percent != c.want {
				t.Errorf("%d/%d: percent = %d, want %d", c.watched, c.total, got.Percent, c.want)
			}
		}
	})
}

func TestInProgress(t *testing.T) {
	cases := []struct {
		name    string
		seasons []Season
		want    bool
	}{
		{"no episodes", nil, false},
		{"nothing watched", []Season{season(1, 3)}, true},
		{"partially watched", []Season{season(1, 3, 1)}, true},
		{"fully watched", []Season{season(1, 3, 1, 2, 3)}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Summarize(c.seasons).InProgress(); got != c.want {
				t.Fatalf("InProgress = %v, want %v", got, c.want)
			}
		})
	}
}
