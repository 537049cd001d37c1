package position

import (
	"testing"

	"github.com/ejyy/hedging-engine/internal/fixedpoint"
	"github.com/stretchr/testify/assert"
)

func TestLedgerInitial(t *testing.T) {
	l := NewLedger(fixedpoint.Quantity(0))
	assert.Equal(t, fixedpoint.Quantity(0), l.NetExposure())
	assert.Equal(t, fixedpoint.Quantity(0), l.ExecutedHedge())
}

func TestLedgerApplyFill(t *testing.T) {
	l := NewLedger(fixedpoint.Quantity(0))
	l.ApplyFill(fixedpoint.Quantity(500), 1000)
	l.ApplyFill(fixedpoint.Quantity(-200), 2000)

	assert.Equal(t, fixedpoint.Quantity(300), l.NetExposure())
	assert.Equal(t, uint64(2000), l.LastChangeNs())
}

func TestLedgerRecordHedge(t *testing.T) {
	l := NewLedger(fixedpoint.Quantity(1000))
	l.RecordHedge(fixedpoint.Quantity(-300), 1500)

	assert.Equal(t, fixedpoint.Quantity(1000), l.NetExposure())
	assert.Equal(t, fixedpoint.Quantity(-300), l.ExecutedHedge())
}

func TestLedgerIndependentFields(t *testing.T) {
	l := NewLedger(fixedpoint.Quantity(100))
	l.RecordHedge(fixedpoint.Quantity(-100), 10)
	l.ApplyFill(fixedpoint.Quantity(50), 20)

	assert.Equal(t, fixedpoint.Quantity(150), l.NetExposure())
	assert.Equal(t, fixedpoint.Quantity(-100), l.ExecutedHedge())
}
