package infrastructure

import (
	"piggyvault/database"
	"piggyvault/domain/interfaces"
	"piggyvault/repository"
)

// UnitOfWorkFactoryWrapper wraps the repository factory so every unit of work
// gets its own transactional publisher over the shared real publisher
type UnitOfWorkFactoryWrapper struct {
	repoFactory interface {
		CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) interfaces.UnitOfWork
	}
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a factory producing units of work that flush
// their buffered events to eventPublisher on commit
func NewUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher) interfaces.UnitOfWorkFactory {
	return &UnitOfWorkFactoryWrapper{
		repoFactory:    repository.NewUnitOfWorkFactory(db),
		eventPublisher: eventPublisher,
	}
}

// Create creates a new UnitOfWork with a fresh transactional event publisher
func (w *UnitOfWorkFactoryWrapper) Create() interfaces.UnitOfWork {
	transactionalPublisher := NewNATSTransactionalPublisher(w.eventPublisher)
	return w.repoFactory.CreateWithPublisher(transactionalPublisher)
}
