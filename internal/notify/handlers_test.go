package notify

import (
	"testing"

	"datapro-service/internal/event"
	"datapro-service/internal/model"
	"datapro-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestVehicleStatusFollowsTransport(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:notify_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Vehicle{}))

	// mailer with no host configured drops mail silently
	RegisterHandlers(db, NewMailer(&config.SMTPConfig{}))

	vehicle := model.Vehicle{ClientID: 1, RegistrationNumber: "FLIP1", Status: model.VehicleAvailable}
	parked := model.Vehicle{ClientID: 1, RegistrationNumber: "FIXME1", Status: model.VehicleMaintenance}
	require.NoError(t, db.Create(&vehicle).Error)
	require.NoError(t, db.Create(&parked).Error)

	// in_transit ties the vehicle up
	event.Publish(event.TransportStatusChanged, &model.TransportService{
		VehicleID: &vehicle.ID,
		Status:    model.TransportInTransit,
	})
	var stored model.Vehicle
	require.NoError(t, db.First(&stored, vehicle.ID).Error)
	assert.Equal(t, model.VehicleInUse, stored.Status)

	// delivered frees it again
	event.Publish(event.TransportStatusChanged, &model.TransportService{
		VehicleID: &vehicle.ID,
		Status:    model.TransportDelivered,
	})
	require.NoError(t, db.First(&stored, vehicle.ID).Error)
	assert.Equal(t, model.VehicleAvailable, stored.Status)

	// a vehicle parked for maintenance is never touched
	event.Publish(event.TransportStatusChanged, &model.TransportService{
		VehicleID: &parked.ID,
		Status:    model.TransportInTransit,
	})
	stored = model.Vehicle{}
	require.NoError(t, db.First(&stored, parked.ID).Error)
	assert.Equal(t, model.VehicleMaintenance, stored.Status)

	// a transport with no vehicle is a no-op
	event.Publish(event.TransportStatusChanged, &model.TransportService{
		Status: model.TransportInTransit,
	})

	// on_hold does not change the fleet
	event.Publish(event.TransportStatusChanged, &model.TransportService{
		VehicleID: &vehicle.ID,
		Status:    model.TransportOnHold,
	})
	stored = model.Vehicle{}
	require.NoError(t, db.First(&stored, vehicle.ID).Error)
	assert.Equal(t, model.VehicleAvailable, stored.Status)
}
