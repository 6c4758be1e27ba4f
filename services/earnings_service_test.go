package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEarningsForTeacher(t *testing.T) {
	db := newTestDB(t)
	_, payments, _ := newTestServices(t, db, nil)
	earnings := NewEarningsService(db, testDefaultRate)

	student := createStudent(t, db, "student@example.com")
	other := createStudent(t, db, "other@example.com")
	teacher := createTeacher(t, db, "teacher@example.com", floatPtr(10))
	stranger := createTeacher(t, db, "stranger@example.com", nil)

	pkgA := createPackage(t, db, teacher.ID, 100, 0)
	pkgB := createPackage(t, db, teacher.ID, 50, 0)
	pkgOther := createPackage(t, db, stranger.ID, 30, 0)

	// Direct sale of pkgA to one student.
	direct, err := payments.CreatePackageIntent(student.ID, pkgA.ID)
	require.NoError(t, err)
	_, err = payments.ConfirmPayment(direct.ID, "")
	require.NoError(t, err)

	// Cart sale of pkgB (plus another teacher's package) to a second
	// student.
	addToCart(t, db, other.ID, pkgB.ID)
	addToCart(t, db, other.ID, pkgOther.ID)
	cartPayment, _, err := payments.CreateCartIntent(other.ID)
	require.NoError(t, err)
	_, err = payments.ConfirmPayment(cartPayment.ID, "")
	require.NoError(t, err)

	entries, err := earnings.EntriesForTeacher(teacher.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byKind := map[string]EarningEntry{}
	for _, e := range entries {
		byKind[e.Kind] = e
	}

	directEntry := byKind[EarningKindDirect]
	assert.Equal(t, direct.ID, directEntry.PaymentID)
	assert.Equal(t, pkgA.CourseID, directEntry.CourseID)
	assert.InDelta(t, 90, directEntry.Amount, 1e-9)
	assert.Nil(t, directEntry.OrderItemID)

	itemEntry := byKind[EarningKindOrderItem]
	assert.Equal(t, cartPayment.ID, itemEntry.PaymentID)
	assert.Equal(t, pkgB.CourseID, itemEntry.CourseID)
	assert.InDelta(t, 45, itemEntry.Amount, 1e-9)
	require.NotNil(t, itemEntry.OrderItemID)
}

func TestEarningsSummaryAndByCourse(t *testing.T) {
	db := newTestDB(t)
	_, payments, _ := newTestServices(t, db, nil)
	earnings := NewEarningsService(db, testDefaultRate)

	teacher := createTeacher(t, db, "teacher@example.com", nil)
	pkg := createPackage(t, db, teacher.ID, 100, 0)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		student := createStudent(t, db, email)
		payment, err := payments.CreatePackageIntent(student.ID, pkg.ID)
		require.NoError(t, err)
		_, err = payments.ConfirmPayment(payment.ID, "")
		require.NoError(t, err)
	}

	summary, err := earnings.SummaryForTeacher(teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Entries)
	assert.InDelta(t, 160, summary.Total, 1e-9)

	byCourse, err := earnings.ByCourse(teacher.ID)
	require.NoError(t, err)
	require.Len(t, byCourse, 1)
	assert.Equal(t, pkg.CourseID, byCourse[0].CourseID)
	assert.Equal(t, 2, byCourse[0].Sales)
	assert.InDelta(t, 160, byCourse[0].Total, 1e-9)
}

func TestEarningsIncludeRefundedPayments(t *testing.T) {
	db := newTestDB(t)
	_, payments, refunds := newTestServices(t, db, nil)
	earnings := NewEarningsService(db, testDefaultRate)

	student := createStudent(t, db, "student@example.com")
	teacher := createTeacher(t, db, "teacher@example.com", nil)
	pkg := createPackage(t, db, teacher.ID, 100, 0)
	order := paidOrder(t, db, payments, student.ID, pkg.ID)

	refund, err := refunds.Request(student.ID, order.ID, 100, "full refund", "")
	require.NoError(t, err)
	_, err = refunds.Approve(refund.ID, "ok")
	require.NoError(t, err)
	_, err = refunds.Complete(refund.ID)
	require.NoError(t, err)

	// Gross earnings history survives the refund; the wallet ledger
	// carries the adjustment.
	entries, err := earnings.EntriesForTeacher(teacher.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.InDelta(t, 80, entries[0].Amount, 1e-9)
	assert.InDelta(t, 0, walletBalance(t, db, teacher.ID), 1e-9)
}

func TestEarningsEmptyForTeacherWithoutSales(t *testing.T) {
	db := newTestDB(t)
	earnings := NewEarningsService(db, testDefaultRate)
	teacher := createTeacher(t, db, "teacher@example.com", nil)

	entries, err := earnings.EntriesForTeacher(teacher.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	summary, err := earnings.SummaryForTeacher(teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Entries)

	byCourse, err := earnings.ByCourse(teacher.ID)
	require.NoError(t, err)
	assert.Empty(t, byCourse)
}
