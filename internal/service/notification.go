package service

import (
	"errors"
	"fmt"
	"strings"

	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/schema"
)

// Action is the verb an operator sees in a failure notification.
type Action string

const (
	ActionRestore Action = "restaurar"
	ActionPurge   Action = "eliminar definitivamente"
	ActionEmpty   Action = "vaciar la papelera"
	ActionDelete  Action = "eliminar"
	ActionCreate  Action = "crear"
)

// DependentRowsError blocks a soft delete while other rows still reference
// the target. It matches model.ErrConstraintViolation.
type DependentRowsError struct {
	Dependent *schema.Origin
}

func (e *DependentRowsError) Error() string {
	suffix := "asociados"
	if e.Dependent.Feminine {
		suffix = "asociadas"
	}
	return fmt.Sprintf("No se puede eliminar porque tiene %s %s", strings.ToLower(e.Dependent.DisplayName), suffix)
}

func (e *DependentRowsError) Unwrap() error {
	return model.ErrConstraintViolation
}

// FailureNotification turns an operation error into the message shown to
// the operator. A vanished trash entry is a notice, not a failure.
func FailureNotification(action Action, err error) model.Notification {
	if errors.Is(err, model.ErrTrashItemNotFound) {
		return model.Notification{
			Title:       "Elemento no encontrado",
			Description: "El elemento ya no está en la papelera. Actualiza la lista.",
			Variant:     model.VariantDefault,
		}
	}

	description := fmt.Sprintf("No se pudo %s el elemento: %s", action, reason(err))
	if action == ActionEmpty {
		description = fmt.Sprintf("No se pudo %s: %s", action, reason(err))
	}

	return model.Notification{
		Title:       "Error",
		Description: description,
		Variant:     model.VariantDestructive,
	}
}

func reason(err error) string {
	var depErr *DependentRowsError
	if errors.As(err, &depErr) {
		return depErr.Error()
	}

	var validationErr *schema.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}

	switch {
	case errors.Is(err, model.ErrTransport):
		return "el servidor no está disponible, inténtalo de nuevo"
	case errors.Is(err, model.ErrRowNotFound):
		return "el registro no existe"
	}
	return err.Error()
}

func restoredNotification(origin *schema.Origin) model.Notification {
	return model.Notification{
		Title:       "Elemento restaurado",
		Description: fmt.Sprintf("%s %s correctamente", origin.Singular, origin.Inflect("restaurado")),
		Variant:     model.VariantDefault,
	}
}

func deletedNotification(origin *schema.Origin, label string) model.Notification {
	return model.Notification{
		Title:       fmt.Sprintf("%s %s", origin.Singular, origin.Inflect("eliminado")),
		Description: fmt.Sprintf("%s se movió a la papelera", label),
		Variant:     model.VariantDefault,
	}
}

func purgedNotification() model.Notification {
	return model.Notification{
		Title:       "Elemento eliminado",
		Description: "El elemento se eliminó permanentemente",
		Variant:     model.VariantDefault,
	}
}

func emptiedNotification(count int64, displayName string) model.Notification {
	description := fmt.Sprintf("Se eliminaron %d elementos de la papelera", count)
	if displayName != "" {
		description = fmt.Sprintf("Se eliminaron %d elementos de %s", count, displayName)
	}
	return model.Notification{
		Title:       "Papelera vaciada",
		Description: description,
		Variant:     model.VariantDefault,
	}
}

func createdNotification(origin *schema.Origin) model.Notification {
	return model.Notification{
		Title:       fmt.Sprintf("%s %s", origin.Singular, origin.Inflect("creado")),
		Description: fmt.Sprintf("%s %s correctamente", origin.Singular, origin.Inflect("creado")),
		Variant:     model.VariantDefault,
	}
}
