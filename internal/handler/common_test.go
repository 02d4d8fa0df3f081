package handler

import (
	"testing"

	"github.com/avelesk/teletrack/internal/repository"
)

func TestGroupEpisodeStats(t *testing.T) {
	stats := []repository.EpisodeStat{
		{SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 1, Watched: true},
		{SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 2, Watched: false},
		{SeriesID: 1, SeasonNumber: 2, EpisodeNumber: 1, Watched: false},
		{SeriesID: 3, SeasonNumber: 1, EpisodeNumber: 1, Watched: true},
	}

	got := groupEpisodeStats(stats)

	if len(got) != 2 {
		t.Fatalf("series groups = %d, want 2", len(got))
	}
	s1 := got[1]
	if len(s1) != 2 {
		t.Fatalf("series 1 seasons = %d, want 2", len(s1))
	}
	if s1[0].Number != 1 || len(s1[0].Episodes) != 2 {
		t.Errorf("series 1 season 1 = %+v", s1[0])
	}
	if s1[1].Number != 2 || len(s1[1].Episodes) != 1 {
		t.Errorf("series 1 season 2 = %+v", s1[1])
	}
	if !s1[0].Episodes[0].Watched || s1[0].Episodes[1].Watched {
		t.Errorf("series 1 season 1 watch flags = %+v", s1[0].Episodes)
	}
	s3 := got[3]
	if len(s3) != 1 || len(s3[0].Episodes) != 1 {
		t.Errorf("series 3 = %+v", s3)
	}
}

func TestGroupEpisodeStatsEmpty(t *testing.T) {
	if got := groupEpisodeStats(nil); len(got) != 0 {
		t.Fatalf("got %+v, want empty map", got)
	}
}
