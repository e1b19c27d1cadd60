package tenancy

import (
	"fmt"
	"testing"

	"datapro-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Client{},
		&model.User{},
		&model.Customer{},
		&model.Passport{},
		&model.PassportExtension{},
		&model.Visa{},
	))
	return db
}

// seedTenants creates two clients, each with one customer, passport and
// extension, and returns the two client IDs.
func seedTenants(t *testing.T, db *gorm.DB) (uint, uint) {
	t.Helper()
	alpha := model.Client{CompanyName: "Alpha Travel", Email: "alpha@example.com"}
	beta := model.Client{CompanyName: "Beta Tours", Email: "beta@example.com"}
	require.NoError(t, db.Create(&alpha).Error)
	require.NoError(t, db.Create(&beta).Error)

	for i, clientID := range []uint{alpha.ID, beta.ID} {
		customer := model.Customer{
			ClientID:  clientID,
			FirstName: "Customer",
			LastName:  string(rune('A' + i)),
		}
		require.NoError(t, db.Create(&customer).Error)

		passport := model.Passport{
			CustomerID:     customer.ID,
			PassportNumber: "P-" + string(rune('A'+i)) + "-001",
		}
		require.NoError(t, db.Create(&passport).Error)

		extension := model.PassportExtension{PassportID: passport.ID, Duration: 6}
		require.NoError(t, db.Create(&extension).Error)
	}
	return alpha.ID, beta.ID
}

func tenantActor(clientID uint) *Actor {
	return &Actor{UserID: 1, Role: model.RoleStaff, ClientID: &clientID}
}

func TestDirectScope(t *testing.T) {
	db := openTestDB(t)
	alphaID, betaID := seedTenants(t, db)

	var customers []model.Customer
	query := Direct("customers")(db.Model(&model.Customer{}), tenantActor(alphaID))
	require.NoError(t, query.Find(&customers).Error)
	require.Len(t, customers, 1)
	assert.Equal(t, alphaID, customers[0].ClientID)

	customers = nil
	query = Direct("customers")(db.Model(&model.Customer{}), tenantActor(betaID))
	require.NoError(t, query.Find(&customers).Error)
	require.Len(t, customers, 1)
	assert.Equal(t, betaID, customers[0].ClientID)
}

func TestDirectScope_SuperAdminSeesAll(t *testing.T) {
	db := openTestDB(t)
	seedTenants(t, db)

	var customers []model.Customer
	admin := &Actor{UserID: 1, Role: model.RoleSuperAdmin}
	query := Direct("customers")(db.Model(&model.Customer{}), admin)
	require.NoError(t, query.Find(&customers).Error)
	assert.Len(t, customers, 2)
}

func TestDirectScope_TenantlessActorGetsNothing(t *testing.T) {
	db := openTestDB(t)
	seedTenants(t, db)

	var customers []model.Customer
	orphan := &Actor{UserID: 1, Role: model.RoleStaff, ClientID: nil}
	query := Direct("customers")(db.Model(&model.Customer{}), orphan)
	require.NoError(t, query.Find(&customers).Error)
	assert.Empty(t, customers)
}

func TestViaCustomerScope(t *testing.T) {
	db := openTestDB(t)
	alphaID, _ := seedTenants(t, db)

	var passports []model.Passport
	query := ViaCustomer("passports")(db.Model(&model.Passport{}), tenantActor(alphaID))
	require.NoError(t, query.Find(&passports).Error)
	require.Len(t, passports, 1)
	assert.Equal(t, "P-A-001", passports[0].PassportNumber)
}

func TestViaPassportScope(t *testing.T) {
	db := openTestDB(t)
	alphaID, betaID := seedTenants(t, db)

	var extensions []model.PassportExtension
	query := ViaPassport("passport_extensions")(db.Model(&model.PassportExtension{}), tenantActor(alphaID))
	require.NoError(t, query.Find(&extensions).Error)
	assert.Len(t, extensions, 1)

	// a cross-tenant lookup by ID reads as not found
	var foreign model.PassportExtension
	query = ViaPassport("passport_extensions")(db.Model(&model.PassportExtension{}), tenantActor(betaID))
	err := query.First(&foreign, extensions[0].ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSelfClientScope(t *testing.T) {
	db := openTestDB(t)
	alphaID, betaID := seedTenants(t, db)

	var clients []model.Client
	query := SelfClient()(db.Model(&model.Client{}), tenantActor(alphaID))
	require.NoError(t, query.Find(&clients).Error)
	require.Len(t, clients, 1)
	assert.Equal(t, alphaID, clients[0].ID)
	assert.NotEqual(t, betaID, clients[0].ID)
}

func TestOwnUserScope(t *testing.T) {
	db := openTestDB(t)
	alphaID, betaID := seedTenants(t, db)

	users := []model.User{
		{Email: "admin@alpha.example.com", Role: model.RoleClientAdmin, ClientID: &alphaID},
		{Email: "staff@alpha.example.com", Role: model.RoleStaff, ClientID: &alphaID},
		{Email: "staff@beta.example.com", Role: model.RoleStaff, ClientID: &betaID},
	}
	for i := range users {
		require.NoError(t, db.Create(&users[i]).Error)
	}

	// client admin sees the whole tenant
	admin := &Actor{UserID: users[0].ID, Role: model.RoleClientAdmin, ClientID: &alphaID}
	var visible []model.User
	require.NoError(t, OwnUser()(db.Model(&model.User{}), admin).Find(&visible).Error)
	assert.Len(t, visible, 2)

	// staff sees only itself
	staff := &Actor{UserID: users[1].ID, Role: model.RoleStaff, ClientID: &alphaID}
	visible = nil
	require.NoError(t, OwnUser()(db.Model(&model.User{}), staff).Find(&visible).Error)
	require.Len(t, visible, 1)
	assert.Equal(t, users[1].ID, visible[0].ID)
}

func TestAuthorize(t *testing.T) {
	db := openTestDB(t)
	alphaID, betaID := seedTenants(t, db)

	var alphaCustomer model.Customer
	require.NoError(t, db.Where("client_id = ?", alphaID).First(&alphaCustomer).Error)

	assert.NoError(t, Authorize(db, tenantActor(alphaID), &alphaCustomer))
	assert.ErrorIs(t, Authorize(db, tenantActor(betaID), &alphaCustomer), ErrPermissionDenied)

	admin := &Actor{UserID: 1, Role: model.RoleSuperAdmin}
	assert.NoError(t, Authorize(db, admin, &alphaCustomer))

	orphan := &Actor{UserID: 1, Role: model.RoleStaff, ClientID: nil}
	assert.ErrorIs(t, Authorize(db, orphan, &alphaCustomer), ErrPermissionDenied)
}

func TestAuthorize_ResolvesThroughCustomerAndPassport(t *testing.T) {
	db := openTestDB(t)
	alphaID, betaID := seedTenants(t, db)

	var passport model.Passport
	require.NoError(t, db.Where("passport_number = ?", "P-A-001").First(&passport).Error)
	assert.NoError(t, Authorize(db, tenantActor(alphaID), &passport))
	assert.ErrorIs(t, Authorize(db, tenantActor(betaID), &passport), ErrPermissionDenied)

	var extension model.PassportExtension
	require.NoError(t, db.Where("passport_id = ?", passport.ID).First(&extension).Error)
	assert.NoError(t, Authorize(db, tenantActor(alphaID), &extension))
	assert.ErrorIs(t, Authorize(db, tenantActor(betaID), &extension), ErrPermissionDenied)
}
