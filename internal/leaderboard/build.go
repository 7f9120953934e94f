package leaderboard

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sales-leaderboard/internal/sales"
	"sales-leaderboard/internal/storage"
)

// Seller is one line of the seller ranking.
type Seller struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	AvatarURL  string          `json:"avatarUrl,omitempty"`
	Team       string          `json:"team,omitempty"`
	Deals      int64           `json:"deals"`
	TotalSales decimal.Decimal `json:"totalSales"`
	Alerts     int             `json:"alerts"`
}

// TeamMember is a top performer inside a team.
type TeamMember struct {
	Name      string `json:"name"`
	Processes int64  `json:"processes"`
}

// Team aggregates the sellers that belong to it.
type Team struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Rank       int          `json:"rank"`
	Members    int          `json:"members"`
	Processes  int64        `json:"processes"`
	TopMembers []TeamMember `json:"topMembers"`
}

// Snapshot is the full board pushed to the screens.
type Snapshot struct {
	Period         Period    `json:"period"`
	WeekOfMonth    int       `json:"weekOfMonth"`
	Sellers        []Seller  `json:"sellers"`
	Teams          []Team    `json:"teams"`
	TotalProcesses int64     `json:"totalProcesses"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

// Options shape team aggregation.
type Options struct {
	KnownTeams []string
	Aliases    map[string]string
	TopMembers int
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Build ranks sellers by deals and folds them into teams. Known teams keep their canonical
// names; teams without members are left out.
func Build(rows []storage.RankingRow, opts Options) Snapshot {
	if opts.TopMembers <= 0 {
		opts.TopMembers = 3
	}
	aliases := make(map[string]string, len(opts.Aliases))
	for from, to := range opts.Aliases {
		aliases[normalize(from)] = strings.TrimSpace(to)
	}

	sellers := make([]Seller, 0, len(rows))
	var total int64
	for _, row := range rows {
		name := sales.FormatName(row.SellerName)
		if name == "" {
			name = "Desconhecido"
		}
		s := Seller{
			ID:         row.SellerID,
			Name:       name,
			AvatarURL:  row.AvatarURL,
			Team:       row.Team,
			Deals:      row.TotalLives,
			TotalSales: row.TotalEntryValue,
		}
		if s.Deals <= 0 {
			s.Alerts = 1
		}
		total += s.Deals
		sellers = append(sellers, s)
	}
	sort.SliceStable(sellers, func(i, j int) bool { return sellers[i].Deals > sellers[j].Deals })

	index := make(map[string]int)
	teams := make([]Team, 0, len(opts.KnownTeams))
	for _, name := range opts.KnownTeams {
		key := normalize(name)
		if _, ok := index[key]; ok || key == "" {
			continue
		}
		index[key] = len(teams)
		teams = append(teams, Team{ID: key, Name: strings.TrimSpace(name)})
	}

	for _, s := range sellers {
		raw := strings.TrimSpace(s.Team)
		if raw == "" {
			continue
		}
		if canonical, ok := aliases[normalize(raw)]; ok {
			raw = canonical
		}
		key := normalize(raw)
		i, ok := index[key]
		if !ok {
			i = len(teams)
			index[key] = i
			teams = append(teams, Team{ID: key, Name: raw})
		}
		teams[i].Members++
		teams[i].Processes += s.Deals
		if s.Deals > 0 {
			teams[i].TopMembers = append(teams[i].TopMembers, TeamMember{Name: s.Name, Processes: s.Deals})
		}
	}

	populated := teams[:0]
	for _, t := range teams {
		if t.Members > 0 {
			populated = append(populated, t)
		}
	}
	sort.SliceStable(populated, func(i, j int) bool { return populated[i].Processes > populated[j].Processes })
	for i := range populated {
		populated[i].Rank = i + 1
		members := populated[i].TopMembers
		sort.SliceStable(members, func(a, b int) bool { return members[a].Processes > members[b].Processes })
		if len(members) > opts.TopMembers {
			members = members[:opts.TopMembers]
		}
		if members == nil {
			members = []TeamMember{}
		}
		populated[i].TopMembers = members
	}

	return Snapshot{Sellers: sellers, Teams: populated, TotalProcesses: total}
}
