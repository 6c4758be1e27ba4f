package services

// CalculateCommission splits a sale amount between the platform and the
// teacher. The teacher-specific rate wins when set, otherwise the
// platform default applies. Rates are clamped to [0, 100].
func CalculateCommission(amount float64, teacherRate *float64, defaultRate float64) (platformCommission, teacherEarning float64) {
	rate := defaultRate
	if teacherRate != nil {
		rate = *teacherRate
	}
	if rate < 0 {
		rate = 0
	}
	if rate > 100 {
		rate = 100
	}

	platformCommission = amount * rate / 100
	teacherEarning = amount - platformCommission
	return platformCommission, teacherEarning
}
