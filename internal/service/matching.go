package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"ridematch/internal/domain"
	"ridematch/internal/events"
	"ridematch/internal/fare"
	"ridematch/internal/geo"
	"ridematch/internal/lifecycle"
	"ridematch/internal/observability"
	"ridematch/internal/payments"
	"ridematch/internal/repository"
)

// transitionAttempts bounds the re-validate loop when a conditional commit
// loses a race. Each retry re-reads the ride and re-runs the lifecycle guard,
// so the loop terminates as soon as the fresh state rejects the event.
const transitionAttempts = 3

// MatchingService orchestrates the ride-matching engine: offer creation and
// discovery, the acceptance race, cancellation, completion and settlement.
// Ride status is mutated only through lifecycle transitions committed with
// conditional updates, so no two conflicting transitions can both succeed.
type MatchingService struct {
	rideRepo    repository.RideRepository
	accountRepo repository.AccountRepository
	geoIndex    geo.Index
	estimator   *fare.Estimator
	wallet      *WalletService
	cards       payments.CardProcessor
	publisher   events.Publisher     // optional
	notifier    *NotificationService // optional

	defaultRadiusMeters float64
	now                 func() time.Time
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(
	rideRepo repository.RideRepository,
	accountRepo repository.AccountRepository,
	geoIndex geo.Index,
	estimator *fare.Estimator,
	wallet *WalletService,
	cards payments.CardProcessor,
	publisher events.Publisher,
	notifier *NotificationService,
	defaultRadiusMeters float64,
) *MatchingService {
	return &MatchingService{
		rideRepo:            rideRepo,
		accountRepo:         accountRepo,
		geoIndex:            geoIndex,
		estimator:           estimator,
		wallet:              wallet,
		cards:               cards,
		publisher:           publisher,
		notifier:            notifier,
		defaultRadiusMeters: defaultRadiusMeters,
		now:                 time.Now,
	}
}

// CreateRideRequest contains the parameters for creating a ride.
type CreateRideRequest struct {
	InitiatorID   string
	Role          domain.Role
	PickupLat     float64
	PickupLng     float64
	DropoffLat    float64
	DropoffLng    float64
	PaymentMethod domain.PaymentMethod
}

// CreateRide constructs a ride in its initial state for the initiator's
// role, estimates the fare and registers the ride in the geo index.
func (s *MatchingService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.EnsureExists(ctx, req.InitiatorID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, ErrAccountDeactivated
	}

	status := domain.RideStatusRequested
	if req.Role == domain.RoleOfferer {
		status = domain.RideStatusOffered
	}

	now := s.now()
	ride := &domain.Ride{
		ID:            uuid.New().String(),
		InitiatorID:   req.InitiatorID,
		InitiatorRole: req.Role,
		PickupLat:     req.PickupLat,
		PickupLng:     req.PickupLng,
		DropoffLat:    req.DropoffLat,
		DropoffLng:    req.DropoffLng,
		PaymentMethod: req.PaymentMethod,
		Status:        status,
		Fare:          s.estimator.Estimate(req.PickupLat, req.PickupLng, req.DropoffLat, req.DropoffLng),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	if err := s.geoIndex.Register(ctx, offerEntry(ride, account.Name)); err != nil {
		// The ride exists but is not discoverable; surface the failure so
		// the caller can retry creation rather than wait forever unmatched.
		return nil, err
	}

	observability.RidesCreated.WithLabelValues(string(req.Role)).Inc()
	s.publish(ctx, events.RideCreated, ride)
	return ride, nil
}

// ListNearbyRequest contains the parameters for a proximity search. AsRole is
// the caller's side of the match: a seeker searching sees offers, an offerer
// searching sees requests.
type ListNearbyRequest struct {
	RequesterID  string
	Lat          float64
	Lng          float64
	RadiusMeters float64
	AsRole       domain.Role
}

// ListNearby returns matchable counterpart entries within the radius, closest
// first, excluding entries the requester initiated.
func (s *MatchingService) ListNearby(ctx context.Context, req ListNearbyRequest) ([]domain.OfferEntry, error) {
	if !isValidLatitude(req.Lat) || !isValidLongitude(req.Lng) {
		return nil, ErrInvalidPickupLocation
	}
	if req.AsRole != domain.RoleSeeker && req.AsRole != domain.RoleOfferer {
		return nil, ErrInvalidRole
	}
	radius := req.RadiusMeters
	if radius == 0 {
		radius = s.defaultRadiusMeters
	}
	if radius <= 0 {
		return nil, ErrInvalidRadius
	}

	started := s.now()
	entries, err := s.geoIndex.QueryNearby(ctx, req.Lat, req.Lng, radius, req.AsRole.Counterpart())
	if err != nil {
		return nil, err
	}
	observability.NearbyQueryDuration.Observe(s.now().Sub(started).Seconds())

	result := entries[:0]
	for _, entry := range entries {
		if entry.InitiatorID == req.RequesterID {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

// AcceptOffer claims a matchable ride for the counterpart. At most one
// concurrent caller wins: the transition commits through a single
// conditional update, and every caller that observes a non-matchable status
// at commit time fails with ErrOfferConflict. There is no window between the
// status check and the status write.
func (s *MatchingService) AcceptOffer(ctx context.Context, rideID, counterpartID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if counterpartID == "" {
		return nil, ErrInvalidAccountID
	}

	account, err := s.accountRepo.EnsureExists(ctx, counterpartID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, ErrAccountDeactivated
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	// Validate guards on the loaded copy first: necessary, not sufficient.
	if err := lifecycle.Accept(ride, counterpartID, now); err != nil {
		var invalid *lifecycle.InvalidTransitionError
		if errors.As(err, &invalid) {
			return nil, ErrOfferConflict
		}
		return nil, err
	}

	claimed, err := s.rideRepo.AcceptIfMatchable(ctx, rideID, counterpartID, now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		observability.AcceptConflicts.Inc()
		return nil, ErrOfferConflict
	}

	// The claim is committed; the entry must leave the index with it.
	if err := s.geoIndex.Unregister(ctx, rideID); err != nil {
		log.Printf("failed to unregister ride %s from geo index: %v", rideID, err)
	}

	observability.AcceptsWon.Inc()
	s.publish(ctx, events.RideAccepted, ride)
	if s.notifier != nil {
		_ = s.notifier.NotifyRideMatched(ctx, ride)
	}
	return ride, nil
}

// CancelOffer cancels a ride: before matching by its initiator, after
// matching by either participant. The commit is conditional on the status
// the guard ran against; a lost race re-validates against the fresh state.
func (s *MatchingService) CancelOffer(ctx context.Context, rideID, actorID, reason string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	for attempt := 0; attempt < transitionAttempts; attempt++ {
		ride, err := s.rideRepo.GetByID(ctx, rideID)
		if err != nil {
			return nil, err
		}

		wasMatchable := lifecycle.IsMatchable(ride.Status)
		expect := ride.Status
		if err := lifecycle.Cancel(ride, actorID, reason, s.now()); err != nil {
			return nil, err
		}

		committed, err := s.rideRepo.UpdateIfStatus(ctx, ride, expect)
		if err != nil {
			return nil, err
		}
		if !committed {
			continue // another transition landed first; re-validate
		}

		if wasMatchable {
			if err := s.geoIndex.Unregister(ctx, rideID); err != nil {
				log.Printf("failed to unregister ride %s from geo index: %v", rideID, err)
			}
		}

		observability.RidesCancelled.Inc()
		s.publish(ctx, events.RideCancelled, ride)
		if s.notifier != nil {
			_ = s.notifier.NotifyRideCancelled(ctx, ride, actorID)
		}
		return ride, nil
	}

	return nil, ErrOfferConflict
}

// StartRide moves an accepted ride to ONGOING.
func (s *MatchingService) StartRide(ctx context.Context, rideID, actorID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	for attempt := 0; attempt < transitionAttempts; attempt++ {
		ride, err := s.rideRepo.GetByID(ctx, rideID)
		if err != nil {
			return nil, err
		}
		if !ride.IsParticipant(actorID) {
			return nil, lifecycle.ErrNotParticipant
		}

		expect := ride.Status
		if err := lifecycle.Start(ride, s.now()); err != nil {
			return nil, err
		}

		committed, err := s.rideRepo.UpdateIfStatus(ctx, ride, expect)
		if err != nil {
			return nil, err
		}
		if !committed {
			continue
		}

		s.publish(ctx, events.RideStarted, ride)
		return ride, nil
	}

	return nil, ErrOfferConflict
}

// CompleteRide moves an ongoing ride to COMPLETED at its estimated fare and
// settles payment. Wallet fares transfer on the internal ledger; card fares
// go to the card processor; cash settles outside the system. The status
// commit comes first: completion is a physical fact, and a failed wallet
// settlement surfaces ErrInsufficientFunds while staying retryable via
// SettleRide.
func (s *MatchingService) CompleteRide(ctx context.Context, rideID, actorID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	for attempt := 0; attempt < transitionAttempts; attempt++ {
		ride, err := s.rideRepo.GetByID(ctx, rideID)
		if err != nil {
			return nil, err
		}
		if !ride.IsParticipant(actorID) {
			return nil, lifecycle.ErrNotParticipant
		}

		expect := ride.Status
		if err := lifecycle.Complete(ride, ride.Fare, s.now()); err != nil {
			return nil, err
		}

		committed, err := s.rideRepo.UpdateIfStatus(ctx, ride, expect)
		if err != nil {
			return nil, err
		}
		if !committed {
			continue
		}

		observability.RidesCompleted.Inc()
		s.publish(ctx, events.RideCompleted, ride)
		if s.notifier != nil {
			_ = s.notifier.NotifyRideCompleted(ctx, ride)
		}

		if err := s.settleFare(ctx, ride); err != nil {
			return nil, err
		}
		return ride, nil
	}

	return nil, ErrOfferConflict
}

// SettleRide retries the wallet fare transfer for a completed ride whose
// settlement failed. It is idempotent on the settled flag.
func (s *MatchingService) SettleRide(ctx context.Context, rideID, actorID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !ride.IsParticipant(actorID) {
		return nil, lifecycle.ErrNotParticipant
	}
	if ride.Status != domain.RideStatusCompleted {
		return nil, ErrRideNotCompleted
	}
	if ride.PaymentMethod != domain.PaymentMethodWallet {
		return nil, ErrNotWalletRide
	}
	if ride.FareSettled {
		return nil, ErrAlreadySettled
	}

	if err := s.settleFare(ctx, ride); err != nil {
		return nil, err
	}
	return ride, nil
}

// settleFare routes the fare by payment method. Wallet is the only method
// touching the ledger.
func (s *MatchingService) settleFare(ctx context.Context, ride *domain.Ride) error {
	switch ride.PaymentMethod {
	case domain.PaymentMethodWallet:
		// Claim the settled flag before touching the ledger. The conditional
		// update is the serialization point: of any number of concurrent
		// settlement attempts, exactly one claims the flag and transfers.
		claimed, err := s.rideRepo.SetFareSettled(ctx, ride.ID, true, false, s.now())
		if err != nil {
			return err
		}
		if !claimed {
			return ErrAlreadySettled
		}
		if ride.Fare > 0 {
			if err := s.wallet.Transfer(ctx, ride.SeekerID(), ride.OffererID(), ride.Fare, ride.ID); err != nil {
				// Release the claim so a later SettleRide can retry the transfer.
				if _, releaseErr := s.rideRepo.SetFareSettled(ctx, ride.ID, false, true, s.now()); releaseErr != nil {
					log.Printf("failed to release settlement claim for ride %s: %v", ride.ID, releaseErr)
				}
				observability.WalletSettlements.WithLabelValues("failed").Inc()
				return err
			}
		}
		ride.FareSettled = true
		ride.UpdatedAt = s.now()
		observability.WalletSettlements.WithLabelValues("settled").Inc()
		s.publish(ctx, events.RideSettled, ride)
		return nil

	case domain.PaymentMethodCard:
		// Best effort, like any external charge at the end of a trip: the
		// ride is already complete, the charge can be retried out of band.
		if s.cards != nil {
			if err := s.cards.Charge(ctx, ride.SeekerID(), ride.Fare, ride.ID); err != nil {
				log.Printf("card charge failed for ride %s: %v", ride.ID, err)
			}
		}
		return nil

	default: // cash settles between the parties directly
		return nil
	}
}

// RateRide stores a participant's rating on a completed ride. Each
// participant rates at most once.
func (s *MatchingService) RateRide(ctx context.Context, rideID, raterID string, stars int, comment string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if stars < 1 || stars > 5 {
		return nil, ErrInvalidRating
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !ride.IsParticipant(raterID) {
		return nil, lifecycle.ErrNotParticipant
	}
	if ride.Status != domain.RideStatusCompleted {
		return nil, ErrRideNotCompleted
	}

	// The rating commits only if the rater's slot is still empty, so a
	// duplicate racing itself cannot land twice, and each side writes only
	// its own columns.
	rating := &domain.Rating{Stars: stars, Comment: comment, RatedAt: s.now()}
	initiator := raterID == ride.InitiatorID
	committed, err := s.rideRepo.ApplyRating(ctx, ride.ID, initiator, rating, s.now())
	if err != nil {
		return nil, err
	}
	if !committed {
		return nil, ErrAlreadyRated
	}

	if initiator {
		ride.InitiatorRating = rating
	} else {
		ride.CounterpartRating = rating
	}
	ride.UpdatedAt = s.now()
	return ride, nil
}

// GetRide retrieves a ride, restricted to its participants.
func (s *MatchingService) GetRide(ctx context.Context, rideID, actorID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !ride.IsParticipant(actorID) {
		return nil, lifecycle.ErrNotParticipant
	}
	return ride, nil
}

// ListRides returns the account's ride history, newest first.
func (s *MatchingService) ListRides(ctx context.Context, accountID string, limit int) ([]*domain.Ride, error) {
	if accountID == "" {
		return nil, ErrInvalidAccountID
	}
	return s.rideRepo.ListByAccount(ctx, accountID, limit)
}

// EstimateFare returns the fare breakdown for a coordinate pair.
func (s *MatchingService) EstimateFare(pickupLat, pickupLng, dropoffLat, dropoffLng float64) (fare.Breakdown, error) {
	if !isValidLatitude(pickupLat) || !isValidLongitude(pickupLng) {
		return fare.Breakdown{}, ErrInvalidPickupLocation
	}
	if !isValidLatitude(dropoffLat) || !isValidLongitude(dropoffLng) {
		return fare.Breakdown{}, ErrInvalidDropoffLocation
	}
	return s.estimator.EstimateBreakdown(pickupLat, pickupLng, dropoffLat, dropoffLng), nil
}

func (s *MatchingService) validateCreateRequest(req CreateRideRequest) error {
	if req.InitiatorID == "" {
		return ErrInvalidAccountID
	}
	if req.Role != domain.RoleSeeker && req.Role != domain.RoleOfferer {
		return ErrInvalidRole
	}
	if !isValidLatitude(req.PickupLat) || !isValidLongitude(req.PickupLng) {
		return ErrInvalidPickupLocation
	}
	if !isValidLatitude(req.DropoffLat) || !isValidLongitude(req.DropoffLng) {
		return ErrInvalidDropoffLocation
	}
	switch req.PaymentMethod {
	case domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodWallet:
		return nil
	default:
		return ErrInvalidPaymentMethod
	}
}

func (s *MatchingService) publish(ctx context.Context, t events.EventType, ride *domain.Ride) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.FromRide(t, ride, s.now())); err != nil {
		log.Printf("failed to publish %s for ride %s: %v", t, ride.ID, err)
	}
}

func offerEntry(ride *domain.Ride, initiatorName string) domain.OfferEntry {
	return domain.OfferEntry{
		RideID:        ride.ID,
		Role:          ride.InitiatorRole,
		InitiatorID:   ride.InitiatorID,
		InitiatorName: initiatorName,
		PickupLat:     ride.PickupLat,
		PickupLng:     ride.PickupLng,
		FareEstimate:  ride.Fare,
	}
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
