package services

import (
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/repositories"
)

// Registry bundles every service wired to one database. It is the composition
// point for the cross-service dependencies: accreditation mutations refresh
// the provider flag through the status service, which writes the flag through
// the provider service, all inside the caller's transaction.
type Registry struct {
	Providers           ProviderService
	Accreditations      AccreditationService
	AccreditationStatus AccreditationStatusService
	Addresses           AddressService
	Contacts            ContactService
	Partnerships        PartnershipService
	AcademicYears       AcademicYearService
	Users               UserService
	APITokens           APITokenService
	Activity            ActivityService
}

// NewRegistry constructs the full service graph over the given transaction
// runner.
func NewRegistry(tx database.TxRunner, logger *zap.Logger) *Registry {
	providerRepo := repositories.NewProviderRepository()
	providerRevRepo := repositories.NewProviderRevisionRepository()
	accredRepo := repositories.NewAccreditationRepository()
	accredRevRepo := repositories.NewAccreditationRevisionRepository()
	addressRepo := repositories.NewAddressRepository()
	addressRevRepo := repositories.NewAddressRevisionRepository()
	contactRepo := repositories.NewContactRepository()
	contactRevRepo := repositories.NewContactRevisionRepository()
	partnershipRepo := repositories.NewPartnershipRepository()
	partnershipRevRepo := repositories.NewPartnershipRevisionRepository()
	partnershipYearRevRepo := repositories.NewPartnershipYearRevisionRepository()
	accredLinkRevRepo := repositories.NewAccreditationPartnershipRevisionRepository()
	yearRepo := repositories.NewAcademicYearRepository()
	yearRevRepo := repositories.NewAcademicYearRevisionRepository()
	providerYearRevRepo := repositories.NewProviderYearRevisionRepository()
	userRepo := repositories.NewUserRepository()
	userRevRepo := repositories.NewUserRevisionRepository()
	tokenRepo := repositories.NewAPITokenRepository()
	tokenRevRepo := repositories.NewAPITokenRevisionRepository()
	activityRepo := repositories.NewActivityLogRepository()

	writer := newRevisionWriter(activityRepo, logger)

	providers := NewProviderService(tx, providerRepo, providerRevRepo, yearRepo, providerYearRevRepo, writer, logger)
	status := NewAccreditationStatusService(tx, accredRepo, providers, logger)

	return &Registry{
		Providers:           providers,
		AccreditationStatus: status,
		Accreditations:      NewAccreditationService(tx, providerRepo, accredRepo, accredRevRepo, status, writer, logger),
		Addresses:           NewAddressService(tx, providerRepo, addressRepo, addressRevRepo, writer, logger),
		Contacts:            NewContactService(tx, providerRepo, contactRepo, contactRevRepo, writer, logger),
		Partnerships: NewPartnershipService(tx, providerRepo, accredRepo, partnershipRepo,
			partnershipRevRepo, partnershipYearRevRepo, accredLinkRevRepo, yearRepo, writer, logger),
		AcademicYears: NewAcademicYearService(tx, yearRepo, yearRevRepo, writer, logger),
		Users:         NewUserService(tx, userRepo, userRevRepo, writer, logger),
		APITokens:     NewAPITokenService(tx, tokenRepo, tokenRevRepo, writer, logger),
		Activity: NewActivityService(tx, activityRepo, providerRepo, RevisionRepos{
			Provider:                 providerRevRepo,
			Accreditation:            accredRevRepo,
			Address:                  addressRevRepo,
			Contact:                  contactRevRepo,
			Partnership:              partnershipRevRepo,
			PartnershipYear:          partnershipYearRevRepo,
			AccreditationPartnership: accredLinkRevRepo,
			ProviderYear:             providerYearRevRepo,
			AcademicYear:             yearRevRepo,
			User:                     userRevRepo,
			APIToken:                 tokenRevRepo,
		}, logger),
	}
}
