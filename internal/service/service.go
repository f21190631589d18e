package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Dan9191/weather-service/internal/auth"
	"github.com/Dan9191/weather-service/internal/integrations/ipapi"
	"github.com/Dan9191/weather-service/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Repository is the persistence surface the service depends on
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUserProfile(ctx context.Context, profile *models.UserProfile) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.UserProfile, error)
	CreateQueryLog(ctx context.Context, log *models.QueryLog) error
	FindLogsByUserID(ctx context.Context, userID int64) ([]models.QueryLog, error)
	DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// WeatherProvider abstracts the upstream weather API
type WeatherProvider interface {
	Current(ctx context.Context, query string) ([]byte, error)
}

// Geolocator abstracts best-effort IP geolocation
type Geolocator interface {
	Resolve(ctx context.Context, ip string) ipapi.Coordinates
}

// Mailer sends account emails. Optional; a nil Mailer disables email.
type Mailer interface {
	SendWelcome(to, username string) error
}

// Service handles business logic
type Service struct {
	repo       Repository
	tokens     *auth.TokenManager
	weather    WeatherProvider
	geo        Geolocator
	mailer     Mailer
	log        *logrus.Logger
	bcryptCost int
}

// NewService initializes a new service. mailer may be nil.
func NewService(repo Repository, tokens *auth.TokenManager, weather WeatherProvider,
	geo Geolocator, mailer Mailer, log *logrus.Logger, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		weather:    weather,
		geo:        geo,
		mailer:     mailer,
		log:        log,
		bcryptCost: bcryptCost,
	}
}

// RegisterInput carries the signup fields. Profile fields are optional.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
}

// Register creates a new user with a hashed password.
// The plaintext password is never stored.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if input.Username == "" || input.Password == "" {
		return nil, models.NewValidationError("username and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     input.Username,
		PasswordHash: string(hashedPassword),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if input.FirstName != nil || input.LastName != nil || input.Email != nil || input.Phone != nil {
		profile := &models.UserProfile{
			ID:        user.ID,
			Username:  user.Username,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Phone:     input.Phone,
		}
		if err := s.repo.UpdateUserProfile(ctx, profile); err != nil {
			return nil, err
		}
	}

	// Welcome email is best-effort and must not delay the signup response
	if s.mailer != nil && input.Email != nil && *input.Email != "" {
		to := *input.Email
		go func() {
			if err := s.mailer.SendWelcome(to, user.Username); err != nil {
				s.log.Errorf("Failed to send welcome email to %s: %v", to, err)
			}
		}()
	}

	s.log.Infof("User registered: %s", user.Username)
	return user, nil
}

// Login authenticates a user and returns a signed bearer token.
// Unknown usernames fail with models.ErrUserNotFound, password mismatches
// with models.ErrInvalidCredentials; neither path issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Username)
	return token, nil
}

// WeatherQuery carries the parameters of a weather lookup
type WeatherQuery struct {
	City string
	Lat  string
	Lon  string
}

// validate checks that the query names either a city or a full coordinate pair
func (q WeatherQuery) validate() error {
	if q.City != "" {
		return nil
	}
	if q.Lat == "" || q.Lon == "" {
		return models.NewValidationError("either city or both lat and lon are required")
	}
	if _, err := strconv.ParseFloat(q.Lat, 64); err != nil {
		return models.NewValidationError("lat must be a number")
	}
	if _, err := strconv.ParseFloat(q.Lon, 64); err != nil {
		return models.NewValidationError("lon must be a number")
	}
	return nil
}

// queryString builds the upstream query: the city name if given, else "lat,lon"
func (q WeatherQuery) queryString() string {
	if q.City != "" {
		return q.City
	}
	return q.Lat + "," + q.Lon
}

// GetWeather runs one weather lookup for the authenticated user: validate the
// query, call the upstream provider, geolocate the caller's IP (best-effort),
// persist one audit log entry, and return the provider's payload verbatim.
// A log write failure fails the whole request; a geolocation failure does not.
func (s *Service) GetWeather(ctx context.Context, userID int64, query WeatherQuery, clientIP string) ([]byte, error) {
	if err := query.validate(); err != nil {
		return nil, err
	}

	q := query.queryString()
	payload, err := s.weather.Current(ctx, q)
	if err != nil {
		return nil, err
	}

	coords := s.geo.Resolve(ctx, clientIP)

	entry := &models.QueryLog{
		UserID:    userID,
		Query:     q,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
	}
	if err := s.repo.CreateQueryLog(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Infof("Weather query logged for user %d: %s", userID, q)
	return payload, nil
}

// GetLogs returns the user's profile together with their full query history
func (s *Service) GetLogs(ctx context.Context, userID int64) (*models.UserLogs, error) {
	profile, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	logs, err := s.repo.FindLogsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.UserLogs{User: profile, Logs: logs}, nil
}
