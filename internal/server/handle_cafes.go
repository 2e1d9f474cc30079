package server

import (
	"net/http"
	"strconv"

	"github.com/playperu/cafefinder/internal/cafefinder"
	"github.com/playperu/cafefinder/internal/finder"
)

type CafesResponse struct {
	Count int               `json:"count"`
	Cafes []cafefinder.Cafe `json:"cafes"`
}

func handleListCafes(svc *finder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cafes := svc.Catalog().Cafes()
		writeJSON(w, http.StatusOK, CafesResponse{Count: len(cafes), Cafes: cafes})
	}
}

type NearbyRequest struct {
	Lat   float64 `query:"lat" required:"true"`
	Lng   float64 `query:"lng" required:"true"`
	Limit int     `query:"limit" minimum:"0"`
}

type NearbyResponse struct {
	Reference cafefinder.Position `json:"reference"`
	List      cafefinder.ListView `json:"list"`
}

// handleNearby ranks the catalog against a caller-supplied position without
// touching any session.
func handleNearby(svc *finder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
		ref := cafefinder.Position{Lat: lat, Lng: lng}
		if errLat != nil || errLng != nil || !ref.Valid() {
			writeError(w, http.StatusBadRequest, "lat and lng must be valid coordinates")
			return
		}

		limit := 0
		if s := q.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}

		ranked := cafefinder.Rank(svc.Catalog().Cafes(), ref)
		if limit > 0 && limit < len(ranked) {
			ranked = ranked[:limit]
		}
		writeJSON(w, http.StatusOK, NearbyResponse{
			Reference: ref,
			List:      cafefinder.PresentList(ranked, ""),
		})
	}
}
