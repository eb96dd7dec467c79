package models

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "models.sqlite")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec("PRAGMA foreign_keys=1").Error)
	require.NoError(t, AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestBaseModel_GeneratesULID(t *testing.T) {
	db := openTestDB(t)

	user := &User{Email: "a@postmat.test", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	assert.Len(t, user.ID, 26)

	var loaded User
	require.NoError(t, FindByID(db, user.ID, &loaded))
	assert.Equal(t, "a@postmat.test", loaded.Email)
}

func TestPackage_GetsPickupCode(t *testing.T) {
	db := openTestDB(t)

	owner := &User{Email: "biz@postmat.test", PasswordHash: "x", IsBusiness: true}
	require.NoError(t, db.Create(owner).Error)
	magazine := &Magazine{OwnerID: owner.ID, Name: "Hub", Address: "Main 1"}
	require.NoError(t, db.Create(magazine).Error)

	pkg := &Package{
		OwnerID:         owner.ID,
		MagazineID:      magazine.ID,
		ReceiverName:    "Ann",
		ReceiverAddress: "Oak 2",
		Size:            SizeSmall,
		Price:           "10.00",
		Status:          StatusCreated,
	}
	require.NoError(t, db.Create(pkg).Error)
	assert.Len(t, pkg.PickupCode, 6)
	assert.False(t, pkg.IsPaid)
}

func TestBusinessRequest_UniqueTaxID(t *testing.T) {
	db := openTestDB(t)

	a := &User{Email: "a@postmat.test", PasswordHash: "x"}
	b := &User{Email: "b@postmat.test", PasswordHash: "x"}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Create(b).Error)

	require.NoError(t, db.Create(&BusinessRequest{UserID: a.ID, CompanyName: "A", TaxID: "1234567890", Status: RequestPending}).Error)
	assert.Error(t, db.Create(&BusinessRequest{UserID: b.ID, CompanyName: "B", TaxID: "1234567890", Status: RequestPending}).Error)
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
}

func TestPriceForSize(t *testing.T) {
	price, ok := PriceForSize(SizeMedium)
	assert.True(t, ok)
	assert.Equal(t, "15.00", price)

	_, ok = PriceForSize("XL")
	assert.False(t, ok)

	assert.Equal(t, "In transit", StatusDisplay(StatusInTransit))
	assert.Equal(t, "LOST", StatusDisplay("LOST"))
}

func TestGeneratePickupCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GeneratePickupCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}

func stubPickupCodes(t *testing.T, codes ...string) {
	t.Helper()
	original := newPickupCode
	t.Cleanup(func() { newPickupCode = original })

	next := 0
	newPickupCode = func() (string, error) {
		code := codes[next%len(codes)]
		next++
		return code, nil
	}
}

func seedPackageOwner(t *testing.T, db *gorm.DB) (*User, *Magazine) {
	t.Helper()
	owner := &User{Email: "codes@postmat.test", PasswordHash: "x", IsBusiness: true}
	require.NoError(t, db.Create(owner).Error)
	magazine := &Magazine{OwnerID: owner.ID, Name: "Hub", Address: "Main 1"}
	require.NoError(t, db.Create(magazine).Error)
	return owner, magazine
}

func newTestPackage(owner *User, magazine *Magazine) *Package {
	return &Package{
		OwnerID:         owner.ID,
		MagazineID:      magazine.ID,
		ReceiverName:    "Ann",
		ReceiverAddress: "Oak 2",
		Size:            SizeSmall,
		Price:           "10.00",
		Status:          StatusCreated,
	}
}

func TestPackage_PickupCodeCollisionIsRetried(t *testing.T) {
	db := openTestDB(t)
	owner, magazine := seedPackageOwner(t, db)

	stubPickupCodes(t, "123456", "123456", "654321")

	first := newTestPackage(owner, magazine)
	require.NoError(t, db.Create(first).Error)
	assert.Equal(t, "123456", first.PickupCode)

	second := newTestPackage(owner, magazine)
	require.NoError(t, db.Create(second).Error)
	assert.Equal(t, "654321", second.PickupCode)
}

func TestPackage_PickupCodesExhausted(t *testing.T) {
	db := openTestDB(t)
	owner, magazine := seedPackageOwner(t, db)

	stubPickupCodes(t, "111111")

	require.NoError(t, db.Create(newTestPackage(owner, magazine)).Error)

	err := db.Create(newTestPackage(owner, magazine)).Error
	assert.ErrorIs(t, err, ErrPickupCodesExhausted)

	var count int64
	require.NoError(t, db.Model(&Package{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPackage_SetStatus(t *testing.T) {
	db := openTestDB(t)
	owner, magazine := seedPackageOwner(t, db)

	pkg := newTestPackage(owner, magazine)
	require.NoError(t, db.Create(pkg).Error)

	at := time.Date(2026, 10, 2, 8, 30, 0, 0, time.UTC)
	require.NoError(t, pkg.SetStatus(db, StatusInTransit, at))
	assert.Equal(t, StatusInTransit, pkg.Status)

	assert.Error(t, pkg.SetStatus(db, "LOST", at))

	var loaded Package
	require.NoError(t, db.Preload("History").Where("id = ?", pkg.ID).First(&loaded).Error)
	assert.Equal(t, StatusInTransit, loaded.Status)
	require.Len(t, loaded.History, 1)
	assert.True(t, loaded.History[0].Timestamp.Equal(at))

	assert.True(t, ValidStatus(StatusReturned))
	assert.False(t, ValidStatus("LOST"))
}
