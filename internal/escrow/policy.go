package escrow

import (
	"github.com/swapyard/swapyard-backend/pkg/config"
	"github.com/swapyard/swapyard-backend/pkg/enums"
)

// Amount returns how much each custodial party must escrow for an offer.
// Trades protect both sides, so the hold covers the highest of the buyer's
// proposed value, the buyer's declared offered-item value, and the listed
// price; purchases hold the listed price on the buyer only.
func Amount(kind enums.OfferKind, proposedCents, offeredCents, listedCents int64) int64 {
	if kind == enums.OfferKindTrade {
		amount := listedCents
		if proposedCents > amount {
			amount = proposedCents
		}
		if offeredCents > amount {
			amount = offeredCents
		}
		return amount
	}
	return listedCents
}

// Fee computes the platform fee for a settled escrow amount, rounding half up.
func Fee(amountCents int64, feeBps int) int64 {
	if amountCents <= 0 || feeBps <= 0 {
		return 0
	}
	return (amountCents*int64(feeBps) + 5000) / 10000
}

// FeeBpsFor selects the configured rate for the offer kind.
func FeeBpsFor(fees config.FeeConfig, kind enums.OfferKind) int {
	if kind == enums.OfferKindTrade {
		return fees.TradeFeeBps
	}
	return fees.PurchaseFeeBps
}
