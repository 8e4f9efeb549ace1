package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineAmount(t *testing.T) {
	assert.True(t, MustMoney("20.00").Equal(LineAmount(2, MustMoney("10.00"))))
	assert.True(t, MustMoney("0").Equal(LineAmount(3, Zero())))
	assert.Equal(t, "7.50", LineAmount(3, MustMoney("2.5")).StringFixed(MoneyScale))
}

func TestSum(t *testing.T) {
	assert.True(t, Zero().Equal(Sum()))
	assert.True(t, MustMoney("25.00").Equal(Sum(MustMoney("20.00"), MustMoney("5.00"))))
}

func TestIsCurrencyScale(t *testing.T) {
	assert.True(t, IsCurrencyScale(MustMoney("10")))
	assert.True(t, IsCurrencyScale(MustMoney("10.25")))
	assert.False(t, IsCurrencyScale(MustMoney("10.255")))
}
