package bulk

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"datapro-service/internal/model"
	"datapro-service/internal/tenancy"

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
	require.NoError(t, db.AutoMigrate(&model.Client{}, &model.Customer{}))
	return db
}

func testCustomerSpec() *Spec[model.Customer] {
	return &Spec[model.Customer]{
		Entity:  "customers",
		Headers: []string{"id", "client_id", "first_name", "last_name", "date_of_birth"},
		Row: func(customer *model.Customer) []string {
			return []string{
				strconv.FormatUint(uint64(customer.ID), 10),
				strconv.FormatUint(uint64(customer.ClientID), 10),
				customer.FirstName,
				customer.LastName,
				FormatDatePtr(customer.DateOfBirth),
			}
		},
		FromRow: func(db *gorm.DB, actor *tenancy.Actor, row map[string]string) (*model.Customer, error) {
			customer := &model.Customer{
				FirstName: row["first_name"],
				LastName:  row["last_name"],
			}
			if customer.FirstName == "" {
				return nil, fmt.Errorf("first name is required")
			}
			dob, err := ParseDatePtrField(row, "date_of_birth")
			if err != nil {
				return nil, err
			}
			customer.DateOfBirth = dob
			if clientID, err := ResolveFK(db, &model.Client{}, row, "client_id"); err != nil {
				return nil, err
			} else if clientID != nil {
				customer.ClientID = *clientID
			}
			return customer, nil
		},
	}
}

func TestParseCSV_HeaderKeyedAndTrimmed(t *testing.T) {
	input := "First_Name, last_name ,client_id\nAda,Lovelace,1\nAlan,Turing,2\n"
	rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ada", rows[0]["first_name"])
	assert.Equal(t, "Lovelace", rows[0]["last_name"])
	assert.Equal(t, "2", rows[1]["client_id"])
}

func TestCSVRoundTrip(t *testing.T) {
	dob := model.NewDate(1990, 5, 20)
	spec := testCustomerSpec()
	items := []model.Customer{
		{ID: 1, ClientID: 7, FirstName: "Ada", LastName: "Lovelace", DateOfBirth: &dob},
		{ID: 2, ClientID: 7, FirstName: "Alan", LastName: "Turing"},
	}

	var buf bytes.Buffer
	require.NoError(t, spec.ExportCSV(&buf, items))

	rows, err := ParseCSV(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ada", rows[0]["first_name"])
	assert.Equal(t, "1990-05-20", rows[0]["date_of_birth"])
	assert.Equal(t, "", rows[1]["date_of_birth"])
	assert.Equal(t, "7", rows[1]["client_id"])
}

func TestXLSXRoundTrip(t *testing.T) {
	spec := testCustomerSpec()
	items := []model.Customer{
		{ID: 1, ClientID: 3, FirstName: "Grace", LastName: "Hopper"},
	}

	var buf bytes.Buffer
	require.NoError(t, spec.ExportXLSX(&buf, items))

	rows, err := ParseXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Grace", rows[0]["first_name"])
	assert.Equal(t, "3", rows[0]["client_id"])
}

func TestImport_AllOrNothing(t *testing.T) {
	db := openTestDB(t)
	client := model.Client{CompanyName: "Gamma Travel"}
	require.NoError(t, db.Create(&client).Error)
	actor := &tenancy.Actor{UserID: 1, Role: model.RoleStaff, ClientID: &client.ID}

	clientID := strconv.FormatUint(uint64(client.ID), 10)
	rows := []map[string]string{
		{"first_name": "Ada", "last_name": "Lovelace", "client_id": clientID},
		{"first_name": "Alan", "last_name": "Turing", "client_id": clientID},
		{"first_name": "", "last_name": "Nameless", "client_id": clientID},
	}

	count, err := testCustomerSpec().Import(db, actor, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
	assert.Zero(t, count)

	// nothing from the earlier rows survives the rollback
	var persisted int64
	require.NoError(t, db.Model(&model.Customer{}).Count(&persisted).Error)
	assert.Zero(t, persisted)
}

func TestImport_Succeeds(t *testing.T) {
	db := openTestDB(t)
	client := model.Client{CompanyName: "Delta Travel"}
	require.NoError(t, db.Create(&client).Error)
	actor := &tenancy.Actor{UserID: 1, Role: model.RoleStaff, ClientID: &client.ID}

	clientID := strconv.FormatUint(uint64(client.ID), 10)
	rows := []map[string]string{
		{"first_name": "Ada", "last_name": "Lovelace", "client_id": clientID},
		{"first_name": "Alan", "last_name": "Turing", "client_id": clientID},
	}

	count, err := testCustomerSpec().Import(db, actor, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var persisted int64
	require.NoError(t, db.Model(&model.Customer{}).Count(&persisted).Error)
	assert.EqualValues(t, 2, persisted)
}

func TestResolveFK_MissingReferenceIsNil(t *testing.T) {
	db := openTestDB(t)

	id, err := ResolveFK(db, &model.Client{}, map[string]string{"client_id": "9999"}, "client_id")
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = ResolveFK(db, &model.Client{}, map[string]string{"client_id": ""}, "client_id")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = ResolveFK(db, &model.Client{}, map[string]string{"client_id": "abc"}, "client_id")
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	spec := testCustomerSpec()
	name := spec.Filename("csv")
	assert.True(t, strings.HasPrefix(name, "customers_"))
	assert.True(t, strings.HasSuffix(name, ".csv"))
}
