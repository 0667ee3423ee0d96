package game

// Normalize canonicalizes the enum fields of externally supplied decisions
// and rejects unknown values and out-of-range rates with ErrInvalidInput.
func (d Decisions) Normalize(current GameState) (Decisions, error) {
	var err error
	if d.Strategy != "" {
		if d.Strategy, err = ParseStrategy(string(d.Strategy)); err != nil {
			return d, err
		}
	}
	if d.LoanRate != nil || d.DepositRate != nil {
		loan, deposit := current.LoanInterestRate, current.DepositInterestRate
		if d.LoanRate != nil {
			loan = *d.LoanRate
		}
		if d.DepositRate != nil {
			deposit = *d.DepositRate
		}
		if err := ValidateRates(loan, deposit); err != nil {
			return d, err
		}
	}
	if c := d.Campaign; c != nil && !c.Stop {
		action := *c
		if action.Type, err = ParseCampaign(string(c.Type)); err != nil {
			return d, err
		}
		d.Campaign = &action
	}
	if d.TechUpgrade != "" {
		if d.TechUpgrade, err = ParseTechUpgrade(string(d.TechUpgrade)); err != nil {
			return d, err
		}
	}
	return d, nil
}
