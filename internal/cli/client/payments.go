package client

import (
	"fmt"
	"strconv"
)

// DefaultPackagePrice is shown for unpaid packages the server has not priced yet
const DefaultPackagePrice = "10.00"

// UnpaidPackages filters packages still awaiting payment
func UnpaidPackages(packages []Package) []Package {
	unpaid := make([]Package, 0, len(packages))
	for _, pkg := range packages {
		if !pkg.IsPaid {
			unpaid = append(unpaid, pkg)
		}
	}
	return unpaid
}

// AmountDue returns the price of a package, falling back to DefaultPackagePrice
func AmountDue(pkg Package) string {
	if pkg.Price == "" {
		return DefaultPackagePrice
	}
	return pkg.Price
}

// TotalDue sums AmountDue over packages, in cents to avoid float drift
func TotalDue(packages []Package) (string, error) {
	var cents int64
	for _, pkg := range packages {
		amount, err := strconv.ParseFloat(AmountDue(pkg), 64)
		if err != nil {
			return "", fmt.Errorf("invalid price %q for package %s: %w", pkg.Price, pkg.ID, err)
		}
		cents += int64(amount*100 + 0.5)
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100), nil
}
