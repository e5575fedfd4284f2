package shipping

import (
	"errors"
	"fmt"
	"strings"

	"cedra_shipping/internal/catalog"
)

var (
	// ErrInputMalformed : requête illisible ou incomplète, rien n'est traité
	ErrInputMalformed = errors.New("requête invalide")
	// ErrCatalogUnavailable : le catalogue n'a pas pu répondre pour un produit
	ErrCatalogUnavailable = errors.New("catalogue indisponible")
)

type CatalogUnavailableError struct {
	ProductID string
	Err       error
}

func (e *CatalogUnavailableError) Error() string {
	return fmt.Sprintf("catalogue indisponible pour le produit %s: %v", e.ProductID, e.Err)
}

func (e *CatalogUnavailableError) Unwrap() error { return e.Err }

func (e *CatalogUnavailableError) Is(target error) bool { return target == ErrCatalogUnavailable }

// CatalogWriteError porte les erreurs de validation du catalogue telles quelles
type CatalogWriteError struct {
	ProductID   string
	FieldErrors []catalog.UserError
	Err         error
}

func (e *CatalogWriteError) Error() string {
	if len(e.FieldErrors) > 0 {
		msgs := make([]string, 0, len(e.FieldErrors))
		for _, fe := range e.FieldErrors {
			msgs = append(msgs, fe.String())
		}
		return fmt.Sprintf("écriture refusée pour le produit %s: %s", e.ProductID, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("écriture impossible pour le produit %s: %v", e.ProductID, e.Err)
}

func (e *CatalogWriteError) Unwrap() error { return e.Err }

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInputMalformed, fmt.Sprintf(format, args...))
}
