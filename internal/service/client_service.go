package service

import (
	"context"
	"errors"

	"commerce-graph/internal/apperr"
	"commerce-graph/internal/auth"
	"commerce-graph/internal/models"
	"commerce-graph/internal/store"
	"commerce-graph/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ClientService manages each seller's client directory
type ClientService struct {
	clients ClientRepository
	guard   *auth.Guard
	logger  *zap.Logger
}

// NewClientService creates a new client service
func NewClientService(clients ClientRepository, guard *auth.Guard) *ClientService {
	return &ClientService{
		clients: clients,
		guard:   guard,
		logger:  util.Named("client_service"),
	}
}

// ClientInput is the create and update payload
type ClientInput struct {
	Name         string `validate:"required"`
	Surname      string `validate:"required"`
	BusinessName string `validate:"required"`
	Role         string
	Email        string `validate:"required,email"`
	Phone        string
	Address      string
}

// CreateClient adds a client to the caller's directory. An email may only
// appear once per seller.
func (s *ClientService) CreateClient(ctx context.Context, input ClientInput) (*models.Client, error) {
	ctx, span := util.StartSpan(ctx, "ClientService.CreateClient")
	var err error
	defer func() { util.EndSpan(span, err) }()

	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}

	input.Email = normalizeEmail(input.Email)
	if err = validateInput(input); err != nil {
		return nil, err
	}

	_, lookupErr := s.clients.GetClientBySellerAndEmail(ctx, caller.ID, input.Email)
	switch {
	case lookupErr == nil:
		err = apperr.Conflict("Client already exists for this seller")
		return nil, err
	case !errors.Is(lookupErr, store.ErrNotFound):
		err = internal(s.logger, lookupErr, "Error creating client")
		return nil, err
	}

	client := &models.Client{
		Name:         input.Name,
		Surname:      input.Surname,
		BusinessName: input.BusinessName,
		Role:         input.Role,
		Email:        input.Email,
		Phone:        input.Phone,
		Address:      input.Address,
		Seller:       caller.ID,
	}
	if createErr := s.clients.CreateClient(ctx, client); createErr != nil {
		err = internal(s.logger, createErr, "Error creating client")
		return nil, err
	}

	s.logger.Info("Client created",
		zap.String("client_id", client.ID.Hex()),
		zap.String("seller_id", caller.ID.Hex()))
	return client, nil
}

// GetClients lists every client, newest first
func (s *ClientService) GetClients(ctx context.Context) ([]models.Client, error) {
	clients, err := s.clients.GetClients(ctx)
	if err != nil {
		return nil, internal(s.logger, err, "Error fetching clients")
	}
	return clients, nil
}

// GetSellerClients lists the caller's clients, newest first
func (s *ClientService) GetSellerClients(ctx context.Context) ([]models.Client, error) {
	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}

	clients, err := s.clients.GetClientsBySeller(ctx, caller.ID)
	if err != nil {
		return nil, internal(s.logger, err, "Error fetching clients")
	}
	return clients, nil
}

// GetClientByID returns a client owned by the caller
func (s *ClientService) GetClientByID(ctx context.Context, id string) (*models.Client, error) {
	return s.loadOwned(ctx, id)
}

// UpdateClient replaces the editable fields of a client owned by the caller
func (s *ClientService) UpdateClient(ctx context.Context, id string, input ClientInput) (*models.Client, error) {
	ctx, span := util.StartSpan(ctx, "ClientService.UpdateClient", attribute.String("client_id", id))
	var err error
	defer func() { util.EndSpan(span, err) }()

	client, err := s.loadOwned(ctx, id)
	if err != nil {
		return nil, err
	}

	input.Email = normalizeEmail(input.Email)
	if err = validateInput(input); err != nil {
		return nil, err
	}

	if input.Email != client.Email {
		_, lookupErr := s.clients.GetClientBySellerAndEmail(ctx, client.Seller, input.Email)
		switch {
		case lookupErr == nil:
			err = apperr.Conflict("Client already exists for this seller")
			return nil, err
		case !errors.Is(lookupErr, store.ErrNotFound):
			err = internal(s.logger, lookupErr, "Error updating client")
			return nil, err
		}
	}

	client.Name = input.Name
	client.Surname = input.Surname
	client.BusinessName = input.BusinessName
	client.Role = input.Role
	client.Email = input.Email
	client.Phone = input.Phone
	client.Address = input.Address

	if updateErr := s.clients.UpdateClient(ctx, client); updateErr != nil {
		err = lookup(s.logger, updateErr, "Client not found", "Error updating client")
		return nil, err
	}
	return client, nil
}

// DeleteClient removes a client owned by the caller
func (s *ClientService) DeleteClient(ctx context.Context, id string) (string, error) {
	ctx, span := util.StartSpan(ctx, "ClientService.DeleteClient", attribute.String("client_id", id))
	var err error
	defer func() { util.EndSpan(span, err) }()

	client, err := s.loadOwned(ctx, id)
	if err != nil {
		return "", err
	}

	if deleteErr := s.clients.DeleteClient(ctx, client.ID); deleteErr != nil {
		err = lookup(s.logger, deleteErr, "Client not found", "Error deleting client")
		return "", err
	}
	return "Client deleted successfully", nil
}

// loadOwned requires a caller, then existence, then ownership
func (s *ClientService) loadOwned(ctx context.Context, id string) (*models.Client, error) {
	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}

	oid, err := parseID(id, "client")
	if err != nil {
		return nil, err
	}

	client, err := s.clients.GetClientByID(ctx, oid)
	if err != nil {
		return nil, lookup(s.logger, err, "Client not found", "Error fetching client")
	}

	if err := s.guard.CheckOwner(caller, client.Seller); err != nil {
		return nil, err
	}
	return client, nil
}
