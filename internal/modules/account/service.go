// README: Account service; registration, login and saved addresses.
package account

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"souq/internal/types"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrBadRequest         = errors.New("bad request")
)

type Service struct {
	store  *Store
	tokens *TokenIssuer
}

func NewService(store *Store, tokens *TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

type RegisterCommand struct {
	Name     string
	Email    string
	Password string
	Role     Role
	Phone    string
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*Account, error) {
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	if cmd.Name == "" || cmd.Email == "" || len(cmd.Password) < 8 {
		return nil, ErrBadRequest
	}
	if !cmd.Role.Valid() || cmd.Role == RoleAdmin {
		// admin accounts are provisioned out of band, never self-registered
		return nil, ErrBadRequest
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	a := &Account{
		ID:           uuid.New(),
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: string(hash),
		Role:         cmd.Role,
		Phone:        cmd.Phone,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Login verifies the credentials and returns the account with a signed
// token. Missing accounts and wrong passwords are indistinguishable to the
// caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, string, error) {
	a, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err == ErrNotFound {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(a.ID, a.Role)
	if err != nil {
		return nil, "", err
	}
	return a, token, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.store.Get(ctx, id)
}

type AddressCommand struct {
	AccountID    uuid.UUID
	Title        string
	Area         string
	Type         string
	Street       string
	Building     string
	Floor        int
	ApartmentNo  int
	SpecialNotes string
	Location     types.Point
}

func (s *Service) AddAddress(ctx context.Context, cmd AddressCommand) (*SavedAddress, error) {
	if cmd.Title == "" || cmd.Area == "" || !cmd.Location.Valid() {
		return nil, ErrBadRequest
	}
	addr := &SavedAddress{
		ID:           uuid.New(),
		AccountID:    cmd.AccountID,
		Title:        cmd.Title,
		Area:         cmd.Area,
		Type:         cmd.Type,
		Street:       cmd.Street,
		Building:     cmd.Building,
		Floor:        cmd.Floor,
		ApartmentNo:  cmd.ApartmentNo,
		SpecialNotes: cmd.SpecialNotes,
		Location:     cmd.Location,
	}
	if err := s.store.CreateAddress(ctx, addr); err != nil {
		return nil, err
	}
	return addr, nil
}

// UpdateAddress replaces every field of a saved address the caller owns.
func (s *Service) UpdateAddress(ctx context.Context, addressID uuid.UUID, cmd AddressCommand) (*SavedAddress, error) {
	if cmd.Title == "" || cmd.Area == "" || !cmd.Location.Valid() {
		return nil, ErrBadRequest
	}
	addr := &SavedAddress{
		ID:           addressID,
		AccountID:    cmd.AccountID,
		Title:        cmd.Title,
		Area:         cmd.Area,
		Type:         cmd.Type,
		Street:       cmd.Street,
		Building:     cmd.Building,
		Floor:        cmd.Floor,
		ApartmentNo:  cmd.ApartmentNo,
		SpecialNotes: cmd.SpecialNotes,
		Location:     cmd.Location,
	}
	if err := s.store.UpdateAddress(ctx, addr); err != nil {
		return nil, err
	}
	return addr, nil
}

func (s *Service) ListAddresses(ctx context.Context, accountID uuid.UUID) ([]SavedAddress, error) {
	return s.store.ListAddresses(ctx, accountID)
}

func (s *Service) GetAddress(ctx context.Context, accountID, addressID uuid.UUID) (*SavedAddress, error) {
	return s.store.GetAddress(ctx, accountID, addressID)
}

func (s *Service) DeleteAddress(ctx context.Context, accountID, addressID uuid.UUID) error {
	return s.store.DeleteAddress(ctx, accountID, addressID)
}
