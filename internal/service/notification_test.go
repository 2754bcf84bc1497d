package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/schema"
)

func TestFailureNotification(t *testing.T) {
	t.Parallel()

	t.Run("vanished entry is a notice", func(t *testing.T) {
		note := FailureNotification(ActionRestore, fmt.Errorf("restore: %w", model.ErrTrashItemNotFound))
		assert.Equal(t, "Elemento no encontrado", note.Title)
		assert.Equal(t, model.VariantDefault, note.Variant)
	})

	t.Run("transport failure", func(t *testing.T) {
		note := FailureNotification(ActionPurge, model.ErrTransport)
		assert.Equal(t, "Error", note.Title)
		assert.Equal(t, "No se pudo eliminar definitivamente el elemento: el servidor no está disponible, inténtalo de nuevo", note.Description)
		assert.Equal(t, model.VariantDestructive, note.Variant)
	})

	t.Run("empty names the trash", func(t *testing.T) {
		note := FailureNotification(ActionEmpty, fmt.Errorf("boom"))
		assert.Equal(t, "No se pudo vaciar la papelera: boom", note.Description)
	})

	t.Run("dependent rows", func(t *testing.T) {
		registry := schema.BackOffice()
		sales, _ := registry.Lookup("sales")
		err := fmt.Errorf("soft delete: %w", &DependentRowsError{Dependent: sales})
		assert.ErrorIs(t, err, model.ErrConstraintViolation)

		note := FailureNotification(ActionDelete, err)
		assert.Equal(t, "No se pudo eliminar el elemento: No se puede eliminar porque tiene ventas asociadas", note.Description)
	})
}

func TestSuccessNotifications(t *testing.T) {
	t.Parallel()

	registry := schema.BackOffice()
	accounts, _ := registry.Lookup("accounts")
	customers, _ := registry.Lookup("customers")

	assert.Equal(t, "Cuenta restaurada correctamente", restoredNotification(accounts).Description)
	assert.Equal(t, "Cliente restaurado correctamente", restoredNotification(customers).Description)
	assert.Equal(t, "Cuenta eliminada", deletedNotification(accounts, "a@example.com").Title)
	assert.Equal(t, "Se eliminaron 3 elementos de la papelera", emptiedNotification(3, "").Description)
}
