package sync

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/sales"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/woocommerce"
)

// defaultPolicyName is the policy auto-created for first-seen gateways
const defaultPolicyName = "Automatic Validation"

// ProvisionService vivifies payment gateways and their financial status
// rows. Order import calls it for every first-seen gateway so imports never
// stall on missing configuration rows.
type ProvisionService struct {
	gateways sales.GatewayRepository
	statuses sales.FinancialStatusRepository
	policies sales.WorkflowPolicyRepository
	recorder *Recorder
	logger   *zap.Logger
}

// NewProvisionService creates a new ProvisionService
func NewProvisionService(
	gateways sales.GatewayRepository,
	statuses sales.FinancialStatusRepository,
	policies sales.WorkflowPolicyRepository,
	recorder *Recorder,
	logger *zap.Logger,
) *ProvisionService {
	return &ProvisionService{
		gateways: gateways,
		statuses: statuses,
		policies: policies,
		recorder: recorder,
		logger:   logger.Named("provision"),
	}
}

// EnsureGateway returns the gateway for a storefront code, creating it and
// its financial status rows on first sight
func (s *ProvisionService) EnsureGateway(ctx context.Context, instanceID uuid.UUID, code, title string) (*sales.PaymentGateway, error) {
	gateway, err := s.gateways.FindByCode(ctx, instanceID, code)
	if err == nil {
		if err := s.ensureStatusRows(ctx, instanceID, gateway.ID); err != nil {
			return nil, err
		}
		return gateway, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	gateway, err = sales.NewPaymentGateway(instanceID, code, title)
	if err != nil {
		return nil, err
	}
	if err := s.gateways.Save(ctx, gateway); err != nil {
		return nil, err
	}
	s.logger.Info("created payment gateway",
		zap.String("code", code),
		zap.String("instance_id", instanceID.String()))
	if err := s.ensureStatusRows(ctx, instanceID, gateway.ID); err != nil {
		return nil, err
	}
	return gateway, nil
}

// ensureStatusRows creates one financial status row per payment state,
// bound to the default policy
func (s *ProvisionService) ensureStatusRows(ctx context.Context, instanceID, gatewayID uuid.UUID) error {
	policy, err := s.EnsureDefaultPolicy(ctx)
	if err != nil {
		return err
	}
	for _, state := range []sales.FinancialState{sales.FinancialStatePaid, sales.FinancialStateNotPaid} {
		exists, err := s.statuses.Exists(ctx, instanceID, gatewayID, state)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		status := &sales.FinancialStatus{
			BaseEntity:       shared.NewBaseEntity(),
			InstanceID:       instanceID,
			GatewayID:        gatewayID,
			State:            state,
			WorkflowPolicyID: &policy.ID,
			Active:           true,
		}
		if err := s.statuses.Save(ctx, status); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDefaultPolicy returns the stock workflow policy, creating it when
// absent. The stock policy ships direct and triggers no automatic step.
func (s *ProvisionService) EnsureDefaultPolicy(ctx context.Context) (*sales.WorkflowPolicy, error) {
	policy, err := s.policies.FindByName(ctx, defaultPolicyName)
	if err == nil {
		return policy, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	policy = &sales.WorkflowPolicy{
		BaseEntity:    shared.NewBaseEntity(),
		Name:          defaultPolicyName,
		PickingPolicy: sales.PickingPolicyDirect,
	}
	if err := s.policies.Save(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// ImportGateways mirrors every gateway definition of the store
func (s *ProvisionService) ImportGateways(ctx context.Context, instance *store.Instance, client *woocommerce.Client) error {
	log := s.recorder.Open(ctx, instance.ID, queue.OperationGateway, queue.OperationTypeImport)
	defer s.recorder.Close(ctx, log)

	remote, err := client.ListPaymentGateways(ctx)
	if err != nil {
		s.recorder.Line(ctx, log, "failed to fetch payment gateways: "+err.Error(), true, nil)
		return err
	}
	for _, g := range remote {
		if g.ID == "" {
			continue
		}
		if _, err := s.EnsureGateway(ctx, instance.ID, g.ID, g.Title); err != nil {
			s.recorder.Line(ctx, log, "gateway "+g.ID+": "+err.Error(), true, nil)
			continue
		}
		s.recorder.Line(ctx, log, "gateway "+g.ID+" mirrored", false, nil)
	}
	return nil
}
