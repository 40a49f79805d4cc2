package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ridematch/internal/domain"
	"ridematch/internal/middleware"
	"ridematch/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	matching *service.MatchingService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(matching *service.MatchingService) *RideHandler {
	return &RideHandler{matching: matching}
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	PickupLat     float64 `json:"pickup_lat"`
	PickupLng     float64 `json:"pickup_lng"`
	DropoffLat    float64 `json:"dropoff_lat"`
	DropoffLng    float64 `json:"dropoff_lng"`
	PaymentMethod string  `json:"payment_method,omitempty"` // CASH, CARD, WALLET
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RateRideRequest is the HTTP request body for rating a ride.
type RateRideRequest struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment,omitempty"`
}

// RatingResponse is the rating portion of a ride response.
type RatingResponse struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment,omitempty"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID                string          `json:"id"`
	InitiatorID       string          `json:"initiator_id"`
	CounterpartID     string          `json:"counterpart_id,omitempty"`
	InitiatorRole     string          `json:"initiator_role"`
	PickupLat         float64         `json:"pickup_lat"`
	PickupLng         float64         `json:"pickup_lng"`
	DropoffLat        float64         `json:"dropoff_lat"`
	DropoffLng        float64         `json:"dropoff_lng"`
	PaymentMethod     string          `json:"payment_method"`
	Status            string          `json:"status"`
	Fare              float64         `json:"fare"`
	FareSettled       bool            `json:"fare_settled"`
	CancelReason      string          `json:"cancel_reason,omitempty"`
	InitiatorRating   *RatingResponse `json:"initiator_rating,omitempty"`
	CounterpartRating *RatingResponse `json:"counterpart_rating,omitempty"`
}

// NearbyEntryResponse is one entry in a proximity search result.
type NearbyEntryResponse struct {
	RideID         string  `json:"ride_id"`
	Role           string  `json:"role"`
	InitiatorID    string  `json:"initiator_id"`
	InitiatorName  string  `json:"initiator_name,omitempty"`
	PickupLat      float64 `json:"pickup_lat"`
	PickupLng      float64 `json:"pickup_lng"`
	FareEstimate   float64 `json:"fare_estimate"`
	DistanceMeters float64 `json:"distance_meters"`
}

// EstimateFareResponse is the HTTP response for a fare estimate.
type EstimateFareResponse struct {
	DistanceMeters float64 `json:"distance_meters"`
	BaseFare       float64 `json:"base_fare"`
	DistanceFare   float64 `json:"distance_fare"`
	TotalFare      float64 `json:"total_fare"`
}

// RequestRide handles POST /v1/rides/request
func (h *RideHandler) RequestRide(c *gin.Context) {
	h.createRide(c, domain.RoleSeeker)
}

// OfferRide handles POST /v1/rides/offer
func (h *RideHandler) OfferRide(c *gin.Context) {
	h.createRide(c, domain.RoleOfferer)
}

func (h *RideHandler) createRide(c *gin.Context, role domain.Role) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	paymentMethod := domain.PaymentMethod(req.PaymentMethod)
	if req.PaymentMethod == "" {
		paymentMethod = domain.PaymentMethodCash
	}

	ride, err := h.matching.CreateRide(c.Request.Context(), service.CreateRideRequest{
		InitiatorID:   middleware.ActorID(c),
		Role:          role,
		PickupLat:     req.PickupLat,
		PickupLng:     req.PickupLng,
		DropoffLat:    req.DropoffLat,
		DropoffLng:    req.DropoffLng,
		PaymentMethod: paymentMethod,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// ListNearby handles GET /v1/rides/nearby?lat=..&lng=..&radius=..&role=..
func (h *RideHandler) ListNearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lng query parameters are required"})
		return
	}

	var radius float64
	if raw := c.Query("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid radius"})
			return
		}
		radius = parsed
	}

	// The role parameter is the caller's side; results are counterpart
	// entries. Most traffic is seekers browsing offers.
	role := domain.Role(c.DefaultQuery("role", string(domain.RoleSeeker)))

	entries, err := h.matching.ListNearby(c.Request.Context(), service.ListNearbyRequest{
		RequesterID:  middleware.ActorID(c),
		Lat:          lat,
		Lng:          lng,
		RadiusMeters: radius,
		AsRole:       role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]NearbyEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, NearbyEntryResponse{
			RideID:         e.RideID,
			Role:           string(e.Role),
			InitiatorID:    e.InitiatorID,
			InitiatorName:  e.InitiatorName,
			PickupLat:      e.PickupLat,
			PickupLng:      e.PickupLng,
			FareEstimate:   e.FareEstimate,
			DistanceMeters: e.DistanceMeters,
		})
	}
	respondJSON(c, http.StatusOK, gin.H{"entries": result, "count": len(result)})
}

// AcceptRide handles POST /v1/rides/:id/accept
func (h *RideHandler) AcceptRide(c *gin.Context) {
	ride, err := h.matching.AcceptOffer(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	var req CancelRideRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	ride, err := h.matching.CancelOffer(c.Request.Context(), c.Param("id"), middleware.ActorID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// StartRide handles POST /v1/rides/:id/start
func (h *RideHandler) StartRide(c *gin.Context) {
	ride, err := h.matching.StartRide(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CompleteRide handles POST /v1/rides/:id/complete
func (h *RideHandler) CompleteRide(c *gin.Context) {
	ride, err := h.matching.CompleteRide(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// SettleRide handles POST /v1/rides/:id/settle
func (h *RideHandler) SettleRide(c *gin.Context) {
	ride, err := h.matching.SettleRide(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// RateRide handles POST /v1/rides/:id/rate
func (h *RideHandler) RateRide(c *gin.Context) {
	var req RateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.matching.RateRide(c.Request.Context(), c.Param("id"), middleware.ActorID(c), req.Stars, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.matching.GetRide(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// ListRides handles GET /v1/rides
func (h *RideHandler) ListRides(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	rides, err := h.matching.ListRides(c.Request.Context(), middleware.ActorID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		result = append(result, toRideResponse(ride))
	}
	respondJSON(c, http.StatusOK, gin.H{"rides": result, "count": len(result)})
}

// EstimateFare handles GET /v1/rides/estimate-fare
func (h *RideHandler) EstimateFare(c *gin.Context) {
	pickupLat, err1 := strconv.ParseFloat(c.Query("pickup_lat"), 64)
	pickupLng, err2 := strconv.ParseFloat(c.Query("pickup_lng"), 64)
	dropoffLat, err3 := strconv.ParseFloat(c.Query("dropoff_lat"), 64)
	dropoffLng, err4 := strconv.ParseFloat(c.Query("dropoff_lng"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pickup and dropoff coordinates are required"})
		return
	}

	breakdown, err := h.matching.EstimateFare(pickupLat, pickupLng, dropoffLat, dropoffLng)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, EstimateFareResponse{
		DistanceMeters: breakdown.DistanceMeters,
		BaseFare:       breakdown.BaseFare,
		DistanceFare:   breakdown.DistanceFare,
		TotalFare:      breakdown.TotalFare,
	})
}

func toRideResponse(ride *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:            ride.ID,
		InitiatorID:   ride.InitiatorID,
		CounterpartID: ride.CounterpartID,
		InitiatorRole: string(ride.InitiatorRole),
		PickupLat:     ride.PickupLat,
		PickupLng:     ride.PickupLng,
		DropoffLat:    ride.DropoffLat,
		DropoffLng:    ride.DropoffLng,
		PaymentMethod: string(ride.PaymentMethod),
		Status:        string(ride.Status),
		Fare:          ride.Fare,
		FareSettled:   ride.FareSettled,
		CancelReason:  ride.CancelReason,
	}
	if ride.InitiatorRating != nil {
		resp.InitiatorRating = &RatingResponse{Stars: ride.InitiatorRating.Stars, Comment: ride.InitiatorRating.Comment}
	}
	if ride.CounterpartRating != nil {
		resp.CounterpartRating = &RatingResponse{Stars: ride.CounterpartRating.Stars, Comment: ride.CounterpartRating.Comment}
	}
	return resp
}
