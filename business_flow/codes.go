package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/dentalcare/app/services"
	"github.com/amirphl/dentalcare/repository"
	"github.com/amirphl/dentalcare/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TxRunner runs fn inside a unit of work; repositories pick the transaction up from ctx
type TxRunner func(ctx context.Context, fn func(context.Context) error) error

// GormTxRunner runs units of work as Postgres transactions
func GormTxRunner(db *gorm.DB) TxRunner {
	return func(ctx context.Context, fn func(context.Context) error) error {
		return repository.WithTransaction(ctx, db, fn)
	}
}

// codePolicy is how one entity kind is numbered
type codePolicy struct {
	scope          services.CodeScope
	prefix         string
	resetWhenEmpty bool
}

var (
	inventoryItemCodes    = codePolicy{scope: services.ScopeInventoryItem, prefix: services.PrefixInventoryItem}
	inventoryRequestCodes = codePolicy{scope: services.ScopeInventoryRequest, prefix: services.PrefixInventoryRequest, resetWhenEmpty: true}
)

// registeredScopes lists every numbered entity kind, in admin listing order
var registeredScopes = []codePolicy{inventoryItemCodes, inventoryRequestCodes}

func (p codePolicy) options(collection services.CollectionCounter) services.CodeOptions {
	if !p.resetWhenEmpty {
		return services.CodeOptions{}
	}
	return services.CodeOptions{ResetWhenEmpty: true, Collection: collection}
}

// issueCode asks the generator for the next code of policy. Any failure aborts
// the creation before anything is persisted.
func issueCode(ctx context.Context, gen services.CodeGenerator, policy codePolicy, collection services.CollectionCounter, metadata *ClientMetadata) (string, error) {
	code, err := gen.NextCode(ctx, policy.scope, policy.prefix, policy.options(collection))
	if err != nil {
		utils.Logger.WithFields(metadata.logFields()).WithFields(logrus.Fields{
			"scope": string(policy.scope),
		}).WithError(err).Error("code generation failed")
		return "", NewBusinessError("CODE_GENERATION_FAILED", "Failed to generate record code", fmt.Errorf("%w: %w", ErrCodeGenerationFailed, err))
	}
	return code, nil
}

// saveCodedError classifies an insert failure of a coded entity
func saveCodedError(err error, code string) error {
	if repository.IsUniqueViolation(err) {
		return NewBusinessErrorf("CODE_CONFLICT", "Code %s is already in use", fmt.Errorf("%w: %w", ErrCodeConflict, err), code)
	}
	return NewBusinessError("SAVE_FAILED", "Failed to save record", err)
}

// normalizeCode validates a client supplied code against prefix and returns it upper-cased
func normalizeCode(code, prefix string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	p, _, err := services.ParseCode(code)
	if err != nil || p != prefix {
		return "", NewBusinessErrorf("INVALID_CODE_FORMAT", "Code must look like %s-001", ErrInvalidCodeFormat, prefix)
	}
	return code, nil
}
