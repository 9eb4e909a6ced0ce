package storefront

import (
	"time"

	"carz-auction/internal/models"
)

const day = 24 * time.Hour

// SampleCatalog is the built-in catalog shown when the auction service cannot be reached.
// End times are relative to now so the sample is always live when loaded.
func SampleCatalog(now time.Time) []Listing {
	sample := []struct {
		id, title, description string
		starting, current      int64
		bidders                int
		endsIn                 time.Duration
		media                  []models.MediaRef
		specs                  map[string]string
	}{
		{
			id:          "sample-pagani-huayra",
			title:       "Pagani Huayra",
			description: "Mid-engine sports car produced by Italian automaker Pagani",
			starting:    2500000,
			current:     2650000,
			bidders:     8,
			endsIn:      5 * day,
			media: []models.MediaRef{
				{Kind: models.MediaImage, Src: "/img/imgi_265_18015-MC20BluInfinito-scaled-e1707920217641.jpg", Alt: "Pagani Huayra Front"},
				{Kind: models.MediaImage, Src: "/img/imgi_265_18015-MC20BluInfinito-scaled-e1707920217641.jpg", Alt: "Pagani Huayra Side"},
				{Kind: models.MediaEmbed, Src: "https://www.youtube.com/embed/1rYKERKZOgc", Alt: "Pagani Huayra Interior"},
			},
			specs: map[string]string{
				"Engine": "6.0L V12", "Horsepower": "730 hp", "Torque": "740 lb-ft",
				"Acceleration": "2.8s 0-60 mph", "Top Speed": "238 mph", "Transmission": "7-speed automatic",
			},
		},
		{
			id:          "sample-porsche-taycan-turbo",
			title:       "Porsche Taycan Turbo",
			description: "All-electric luxury sports sedan",
			starting:    185000,
			current:     210000,
			bidders:     12,
			endsIn:      2 * day,
			media: []models.MediaRef{
				{Kind: models.MediaImage, Src: "/img/imgi_263_prosche-electric-car-01.jpg", Alt: "Porsche Taycan Front"},
				{Kind: models.MediaEmbed, Src: "https://www.youtube.com/embed/Oi-xWqXnufI", Alt: "Porsche Taycan Interior"},
			},
			specs: map[string]string{
				"Engine": "Dual Electric Motors", "Horsepower": "750 hp", "Torque": "774 lb-ft",
				"Acceleration": "2.6s 0-60 mph", "Top Speed": "161 mph", "Range": "201 miles",
			},
		},
		{
			id:          "sample-nissan-leaf",
			title:       "Nissan Leaf",
			description: "Compact all-electric hatchback",
			starting:    28000,
			current:     31500,
			bidders:     5,
			endsIn:      day,
			media: []models.MediaRef{
				{Kind: models.MediaEmbed, Src: "https://www.youtube.com/embed/TDklt0vweyA", Alt: "Nissan Leaf Front"},
			},
			specs: map[string]string{
				"Engine": "Electric Motor", "Horsepower": "147 hp", "Torque": "236 lb-ft",
				"Acceleration": "7.4s 0-60 mph", "Top Speed": "89 mph", "Range": "149 miles",
			},
		},
		{
			id:          "sample-rolls-royce-phantom",
			title:       "Rolls Royce Phantom",
			description: "Full-sized luxury saloon car",
			starting:    450000,
			current:     485000,
			bidders:     6,
			endsIn:      3 * day,
			media: []models.MediaRef{
				{Kind: models.MediaEmbed, Src: "https://www.youtube.com/embed/FzO6KdXHeeU", Alt: "Rolls Royce Phantom"},
			},
			specs: map[string]string{
				"Engine": "6.75L V12", "Horsepower": "563 hp", "Torque": "664 lb-ft",
				"Acceleration": "5.1s 0-60 mph", "Top Speed": "155 mph", "Transmission": "8-speed automatic",
			},
		},
	}

	out := make([]Listing, 0, len(sample))
	for _, s := range sample {
		out = append(out, Listing{AuctionSummary: models.AuctionSummary{
			Auction: models.Auction{
				AuctionID:     s.id,
				Title:         s.title,
				Description:   s.description,
				Media:         s.media,
				Specs:         s.specs,
				StartingPrice: s.starting,
				CurrentPrice:  s.current,
				EndTime:       now.Add(s.endsIn).UTC(),
				Status:        models.StatusActive,
			},
			BidderCount: s.bidders,
		}})
	}
	return out
}
