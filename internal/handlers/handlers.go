package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"before-after/internal/api"
	"before-after/internal/engine"
	"before-after/internal/middleware"
	"before-after/internal/models"
	"before-after/internal/utils"
	"before-after/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Auth           *middleware.Auth
	Authenticator  middleware.Authenticator
	Hub            *websocket.Hub
	Metrics        *utils.MetricsCollector
	CORS           *middleware.CORSConfig
	Validate       *validator.Validate
	RequestTimeout time.Duration
	MetricsEnabled bool
}

type Options struct {
	AuthHeader     string
	AllowedOrigins []string
	RequestTimeout time.Duration
	MetricsEnabled bool
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	authenticator middleware.Authenticator,
	hub *websocket.Hub,
	metrics *utils.MetricsCollector,
	opts Options,
) *Server {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Authenticator:  authenticator,
		Hub:            hub,
		Metrics:        metrics,
		CORS:           middleware.DefaultCORSConfig(opts.AllowedOrigins, opts.AuthHeader),
		Validate:       NewValidator(),
		RequestTimeout: timeout,
		MetricsEnabled: opts.MetricsEnabled,
	}
	s.Auth = middleware.NewAuth(authenticator, opts.AuthHeader, s.writeError)
	return s
}

// NewValidator returns a validator that reports JSON field names and knows
// the post category enum.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	})
	return v
}

// request sends msg to pid and waits for the reply. Actor replies that are
// AppErrors come back as errors.
func (s *Server) request(pid *actor.PID, msg interface{}) (interface{}, error) {
	result, err := s.Context.RequestFuture(pid, msg, s.RequestTimeout).Result()
	if err != nil {
		return nil, utils.NewActorTimeoutError(pid.Id).Wrap(err)
	}
	if appErr, ok := result.(*utils.AppError); ok {
		return nil, appErr
	}
	return result, nil
}

// expect narrows an actor reply to the type the handler needs.
func expect[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	value, ok := result.(T)
	if !ok {
		return zero, utils.NewAppError(utils.ErrMessageRejected, "Unexpected response from service",
			fmt.Errorf("got %T, want %T", result, zero))
	}
	return value, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if appErr, ok := utils.AsAppError(err); ok && s.Metrics != nil {
		s.Metrics.IncrementErrors(appErr.Code)
	}
	api.WriteError(w, err)
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.NewAppError(utils.ErrInvalidInput, "Invalid request body", err)
	}
	if n, ok := dst.(models.Normalizer); ok {
		n.Normalize()
	}
	if err := s.Validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return utils.NewAppError(utils.ErrInvalidInput, "Invalid request body", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email address")
		case "max":
			msgs = append(msgs, fe.Field()+" must be at most "+fe.Param()+" characters")
		case "category":
			msgs = append(msgs, fe.Field()+" is not a known category")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return utils.NewAppError(utils.ErrInvalidInput, strings.Join(msgs, "; "), err)
}

// pathID parses a path wildcard as an ObjectID. Malformed ids are reported
// as not found.
func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := r.PathValue(name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, utils.NewInvalidIDError(raw)
	}
	return id, nil
}

// pageParam reads ?page=N, defaulting to the first page.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
