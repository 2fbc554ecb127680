package seed

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"
)

// LogRecord is one row of cm.astra_logging.
type LogRecord struct {
	UID             string    `parquet:"uid"`
	Timestamp       string    `parquet:"timestamp"`
	TS              string    `parquet:"ts"`
	NewDate         string    `parquet:"new_date"`
	GeoCity         string    `parquet:"geo_city"`
	DeviceType      string    `parquet:"device_type"`
	TargetECPM      string    `parquet:"target_ecpm"`
	ResponseBid     string    `parquet:"response_bid"`
	SiteDomain      string    `parquet:"site_domain"`
	SitePage        string    `parquet:"site_page"`
	PlacementCode   string    `parquet:"placementcode"`
	AdvDomainNameAC string    `parquet:"adv_domain_name_ac"`
	KeywordTermAC   string    `parquet:"keyword_term_ac"`
	OppIDAC         string    `parquet:"opp_id_ac"`
	OppID           string    `parquet:"opp_id"`
	BidPriceLogits  []float64 `parquet:"bid_price_logits,list"`
	TopNKeywords    []string  `parquet:"top_n_keywords,list"`
}

// ClickRecord is one row of cm.ad_click_et.
type ClickRecord struct {
	ClickID           string  `parquet:"click_id"`
	TS                string  `parquet:"ts"`
	TimeStamp         string  `parquet:"time_stamp"`
	NewDate           string  `parquet:"new_date"`
	AdvDomainName     string  `parquet:"adv_domain_name"`
	OppID             string  `parquet:"opp_id"`
	NetTotalRevenue   float64 `parquet:"net_total_revenue"`
	KeywordTerm       string  `parquet:"keyword_term"`
	KeywordPositionID int64   `parquet:"keyword_position_id"`
}

var (
	cities      = []string{"New York", "Los Angeles", "Chicago", "Houston", "Berlin", "London", "Toronto"}
	devices     = []string{"mobile", "desktop", "tablet"}
	sites       = []string{"news.example.com", "recipes.example.org", "sports.example.net", "travel.example.io"}
	advertisers = []string{"shoes.example.com", "insure.example.com", "bank.example.com", "hotels.example.com"}
	keywords    = []string{"running shoes", "car insurance", "savings account", "cheap hotels", "flight deals", "credit card"}
	placements  = []string{"top_banner", "sidebar", "in_article", "footer"}
)

// Generator produces auctions and, for a share of them, the click that
// followed. Output is deterministic for a seed and start time.
type Generator struct {
	rnd             *rand.Rand
	sequence        int64
	clickRatePct    int
	userCardinality int
	days            int
	end             time.Time
}

func NewGenerator(seed int64, clickRatePct, userCardinality, days int, end time.Time) *Generator {
	return &Generator{
		rnd:             rand.New(rand.NewSource(seed)),
		clickRatePct:    clickRatePct,
		userCardinality: userCardinality,
		days:            days,
		end:             end.UTC(),
	}
}

// Next returns one auction log row and, when the auction led to a click,
// the click row sharing its opp_id.
func (g *Generator) Next() (LogRecord, *ClickRecord) {
	g.sequence++
	at := g.end.Add(-time.Duration(g.rnd.Int63n(int64(g.days) * int64(24*time.Hour))))
	oppID := fmt.Sprintf("opp-%010d", g.sequence)
	advertiser := pickOne(g.rnd, advertisers)
	keyword := pickOne(g.rnd, keywords)
	device := pickOne(g.rnd, devices)
	ecpm := round2(0.5 + g.rnd.Float64()*9.5)
	site := pickOne(g.rnd, sites)

	logRow := LogRecord{
		UID:             fmt.Sprintf("user-%05d", g.rnd.Intn(g.userCardinality)+1),
		Timestamp:       strconv.FormatInt(at.UnixMilli(), 10),
		TS:              at.Format(time.DateTime),
		NewDate:         at.Format(time.DateOnly),
		GeoCity:         pickOne(g.rnd, cities),
		DeviceType:      device,
		TargetECPM:      formatMoney(ecpm),
		ResponseBid:     formatMoney(round2(ecpm * (0.6 + g.rnd.Float64()*0.3))),
		SiteDomain:      site,
		SitePage:        fmt.Sprintf("https://%s/article/%d", site, g.rnd.Intn(10000)),
		PlacementCode:   pickOne(g.rnd, placements),
		AdvDomainNameAC: advertiser,
		KeywordTermAC:   keyword,
		OppIDAC:         oppID,
		OppID:           oppID,
		BidPriceLogits:  []float64{round2(g.rnd.NormFloat64()), round2(g.rnd.NormFloat64()), round2(g.rnd.NormFloat64())},
		TopNKeywords:    []string{keyword, pickOne(g.rnd, keywords)},
	}

	if g.rnd.Intn(100) >= g.clickRatePct {
		return logRow, nil
	}
	clickAt := at.Add(time.Duration(1+g.rnd.Intn(120)) * time.Second)
	click := &ClickRecord{
		ClickID:           fmt.Sprintf("click-%010d", g.sequence),
		TS:                clickAt.Format(time.DateTime),
		TimeStamp:         strconv.FormatInt(clickAt.UnixMilli(), 10),
		NewDate:           clickAt.Format(time.DateOnly),
		AdvDomainName:     advertiser,
		OppID:             oppID,
		NetTotalRevenue:   pickRevenue(g.rnd, device),
		KeywordTerm:       keyword,
		KeywordPositionID: int64(g.rnd.Intn(5) + 1),
	}
	return logRow, click
}

func pickRevenue(r *rand.Rand, device string) float64 {
	switch device {
	case "desktop":
		return round2(0.4 + r.Float64()*3.1)
	case "tablet":
		return round2(0.3 + r.Float64()*2.2)
	default:
		return round2(0.2 + r.Float64()*1.8)
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func formatMoney(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
