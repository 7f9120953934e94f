package leaderboard

import (
	"testing"

	"github.com/shopspring/decimal"

	"sales-leaderboard/internal/storage"
)

func row(id, name, team string, lives int64) storage.RankingRow {
	return storage.RankingRow{SellerID: id, SellerName: name, Team: team, TotalLives: lives, TotalEntryValue: decimal.NewFromInt(lives * 100)}
}

func TestBuild(t *testing.T) {
	rows := []storage.RankingRow{
		row("1", "Ana Maria Souza", "Titans", 3),
		row("2", "Bruno Lima", " titans ", 5),
		row("3", "Carla Dias", "Phoenix", 0),
		row("4", "Diego Alves", "Nova Equipe", 2),
		row("5", "Eva Rocha", "Titãs", 1),
		row("6", "Fábio Reis", "Titans", 4),
		row("7", "", "", 1),
	}

	snap := Build(rows, Options{
		KnownTeams: []string{"Titans", "Phoenix", "Premium"},
		Aliases:    map[string]string{"titãs": "Titans"},
		TopMembers: 3,
	})

	if snap.TotalProcesses != 16 {
		t.Fatalf("total processes = %d, want 16", snap.TotalProcesses)
	}
	if snap.Sellers[0].Name != "Bruno Lima" || snap.Sellers[0].Deals != 5 {
		t.Fatalf("top seller = %+v", snap.Sellers[0])
	}
	for _, s := range snap.Sellers {
		if s.ID == "1" && s.Name != "Ana Souza" {
			t.Fatalf("names should be shortened, got %q", s.Name)
		}
		if s.ID == "3" && s.Alerts != 1 {
			t.Fatalf("seller without deals should be flagged")
		}
		if s.ID == "7" && s.Name != "Desconhecido" {
			t.Fatalf("missing name should fall back, got %q", s.Name)
		}
	}

	if len(snap.Teams) != 3 {
		t.Fatalf("teams = %+v, want Titans, Nova Equipe, Phoenix", snap.Teams)
	}
	titans := snap.Teams[0]
	if titans.Name != "Titans" || titans.Rank != 1 || titans.Members != 4 || titans.Processes != 13 {
		t.Fatalf("unexpected titans %+v", titans)
	}
	if len(titans.TopMembers) != 3 || titans.TopMembers[0].Name != "Bruno Lima" || titans.TopMembers[2].Processes != 3 {
		t.Fatalf("unexpected top members %+v", titans.TopMembers)
	}
	if snap.Teams[1].Name != "Nova Equipe" || snap.Teams[1].Rank != 2 {
		t.Fatalf("unexpected second team %+v", snap.Teams[1])
	}
	phoenix := snap.Teams[2]
	if phoenix.Name != "Phoenix" || phoenix.Members != 1 || len(phoenix.TopMembers) != 0 || phoenix.TopMembers == nil {
		t.Fatalf("phoenix should have one member and an empty top list, got %+v", phoenix)
	}
}

func TestBuildEmpty(t *testing.T) {
	snap := Build(nil, Options{KnownTeams: []string{"Titans"}})
	if len(snap.Sellers) != 0 || len(snap.Teams) != 0 || snap.TotalProcesses != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
