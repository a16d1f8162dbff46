package sync

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/catalog"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/woocommerce"
)

// CategoryExportService pushes the category tree to the store. Parents are
// placed before children; conflicts with terms that already exist on the
// store are resolved by adopting the remote identifier.
type CategoryExportService struct {
	categories catalog.CategoryRepository
	recorder   *Recorder
	clients    ClientFactory
	logger     *zap.Logger
}

// NewCategoryExportService creates a new CategoryExportService
func NewCategoryExportService(categories catalog.CategoryRepository, recorder *Recorder, clients ClientFactory, logger *zap.Logger) *CategoryExportService {
	return &CategoryExportService{
		categories: categories,
		recorder:   recorder,
		clients:    clients,
		logger:     logger.Named("category-export"),
	}
}

// termError is the error envelope the store wraps term conflicts in
type termError struct {
	Code string `json:"code"`
	Data struct {
		ResourceID int64 `json:"resource_id"`
	} `json:"data"`
}

// ExportAll pushes every category of the instance until the set reaches a
// fixed point. Each pass places categories whose parent is already on the
// store; a category whose remote identifier turns out stale is cleared and
// retried as a create. The loop is bounded by the category count plus one,
// so a cycle or a persistently refused term cannot stall the run.
func (s *CategoryExportService) ExportAll(ctx context.Context, instance *store.Instance) error {
	client := s.clients(instance)
	log := s.recorder.Open(ctx, instance.ID, queue.OperationProductCategory, queue.OperationTypeExport)
	defer s.recorder.Close(ctx, log)

	categories, err := s.categories.FindByInstance(ctx, instance.ID)
	if err != nil {
		return err
	}

	byID := make(map[string]*catalog.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID.String()] = &categories[i]
	}

	// refresh placed terms first; a stale remote identifier is cleared
	// here and retried as a create below
	for i := range categories {
		if !categories[i].IsExported() {
			continue
		}
		if _, err := s.pushUpdate(ctx, client, log, &categories[i]); err != nil {
			return err
		}
	}

	for pass := 0; pass <= len(categories)+1; pass++ {
		progress := false
		remaining := 0
		for i := range categories {
			category := &categories[i]
			if category.IsExported() {
				continue
			}
			if parent := s.parentOf(category, byID); parent != nil && !parent.IsExported() {
				remaining++
				continue
			}
			placed, err := s.pushCreate(ctx, client, log, category, byID)
			if err != nil {
				return err
			}
			if placed {
				progress = true
			} else {
				remaining++
			}
		}
		if remaining == 0 || !progress {
			break
		}
	}
	return nil
}

func (s *CategoryExportService) parentOf(category *catalog.Category, byID map[string]*catalog.Category) *catalog.Category {
	if category.ParentID == nil {
		return nil
	}
	return byID[category.ParentID.String()]
}

// pushCreate places a category on the store, adopting the remote term when
// the slug already exists there
func (s *CategoryExportService) pushCreate(ctx context.Context, client *woocommerce.Client, log *queue.OperationLog, category *catalog.Category, byID map[string]*catalog.Category) (bool, error) {
	var parentRemote int64
	if parent := s.parentOf(category, byID); parent != nil {
		parentRemote, _ = strconv.ParseInt(parent.RemoteID, 10, 64)
	}

	result, err := client.CreateCategory(ctx, category.Name, category.Slug, parentRemote)
	if err != nil {
		return false, err
	}
	if result.OK {
		var term woocommerce.CategoryTerm
		if err := result.Decode(&term); err != nil {
			return false, err
		}
		category.AdoptRemote(woocommerce.FormatID(term.ID))
		if err := s.categories.Save(ctx, category); err != nil {
			return false, err
		}
		s.recorder.Line(ctx, log, "category "+category.Name+" placed", false, nil)
		return true, nil
	}

	var remoteErr termError
	if err := json.Unmarshal([]byte(result.Raw), &remoteErr); err == nil && remoteErr.Code == "term_exists" && remoteErr.Data.ResourceID > 0 {
		category.AdoptRemote(woocommerce.FormatID(remoteErr.Data.ResourceID))
		if err := s.categories.Save(ctx, category); err != nil {
			return false, err
		}
		s.recorder.Line(ctx, log, "category "+category.Name+" adopted existing term", false, nil)
		return true, nil
	}

	s.recorder.Exchange(ctx, log, "category "+category.Name+" refused: "+result.Error(), true, nil, category.Slug, result.Raw)
	return false, nil
}

// pushUpdate refreshes an already-placed category. A stale remote
// identifier is cleared so the next pass retries the term as a create.
func (s *CategoryExportService) pushUpdate(ctx context.Context, client *woocommerce.Client, log *queue.OperationLog, category *catalog.Category) (bool, error) {
	termID, err := strconv.ParseInt(category.RemoteID, 10, 64)
	if err != nil {
		category.ClearRemote()
		return true, s.categories.Save(ctx, category)
	}
	result, err := client.UpdateCategory(ctx, termID, category.Name, category.Slug, 0)
	if err != nil {
		return false, err
	}
	if result.OK {
		return false, nil
	}
	if isInvalidTerm(result.Raw) {
		category.ClearRemote()
		if err := s.categories.Save(ctx, category); err != nil {
			return false, err
		}
		s.recorder.Line(ctx, log, "category "+category.Name+" lost its remote term, retrying as create", false, nil)
		return true, nil
	}
	s.recorder.Exchange(ctx, log, "category "+category.Name+" update refused: "+result.Error(), true, nil, category.Slug, result.Raw)
	return false, nil
}

func isInvalidTerm(raw string) bool {
	var remoteErr termError
	if err := json.Unmarshal([]byte(raw), &remoteErr); err != nil {
		return false
	}
	return remoteErr.Code == "rest_term_invalid" ||
		strings.Contains(remoteErr.Code, "term_invalid") ||
		strings.Contains(remoteErr.Code, "no_route")
}
