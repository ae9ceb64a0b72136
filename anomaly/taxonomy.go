package anomaly

import (
	"fmt"
	"time"

	"sqlcamp/datagen/models"
)

// buildRecord fills the natural-language side of the injection contract.
// Nothing here may contain SQL: the problem-authoring collaborator turns
// these sentences into exercises, and leaking syntax would hand learners
// the answer.
func buildRecord(vertical models.Vertical, kind models.AnomalyKind, date time.Time, p models.AnomalyParams) *models.AnomalyRecord {
	rec := &models.AnomalyRecord{
		ProblemDate: date,
		ProductType: vertical,
		AnomalyType: kind,
		Params:      p,
	}

	switch kind {
	case models.AnomalyChannelConversionDrop:
		rec.AffectedScope = fmt.Sprintf("users acquired through the %q channel", p.Channel)
		rec.Description = fmt.Sprintf(
			"Conversion among users from the %s channel fell sharply: roughly %.0f%% of their %s events are missing.",
			p.Channel, p.DropRate*100, p.EventName)
		rec.Hint = "Compare conversion rates across acquisition channels."
		rec.Hints = []string{
			"Overall conversion looks lower than usual.",
			"Break the conversion rate down by acquisition channel.",
			fmt.Sprintf("One channel converts far worse than the others; look at %q.", p.Channel),
		}
		rec.RootCause = fmt.Sprintf(
			"A broken landing page for the %s channel suppressed about %.0f%% of its conversions.",
			p.Channel, p.DropRate*100)

	case models.AnomalyDeviceIssue:
		rec.AffectedScope = fmt.Sprintf("sessions on %q devices", p.Device)
		rec.Description = fmt.Sprintf(
			"Sessions on %s devices stopped recording most %s events (about %.0f%% missing).",
			p.Device, p.EventName, p.DropRate*100)
		rec.Hint = "Compare per-device event rates."
		rec.Hints = []string{
			"One interaction type is underreported.",
			fmt.Sprintf("Compute the rate of %s events per session, split by device.", p.EventName),
			fmt.Sprintf("The %q device segment is the outlier.", p.Device),
		}
		rec.RootCause = fmt.Sprintf(
			"An app release broke the %s interaction on %s devices.", p.EventName, p.Device)

	case models.AnomalyTimeBased:
		rec.AffectedScope = fmt.Sprintf("%s events between %02d:00 and %02d:00", p.EventName, p.GapStart, p.GapStart+p.GapHours)
		rec.Description = fmt.Sprintf(
			"%s events dip noticeably during a %d-hour window starting at %02d:00.",
			p.EventName, p.GapHours, p.GapStart)
		rec.Hint = "Bucket event counts by hour of day."
		rec.Hints = []string{
			"Daily totals look normal, but the shape of the day does not.",
			fmt.Sprintf("Plot %s events per hour.", p.EventName),
			fmt.Sprintf("Check the hours starting at %02d:00.", p.GapStart),
		}
		rec.RootCause = fmt.Sprintf(
			"A degraded upstream service suppressed %s activity for %d hours from %02d:00.",
			p.EventName, p.GapHours, p.GapStart)

	case models.AnomalyCountryBehaviorChange:
		rec.AffectedScope = fmt.Sprintf("users located in %q", p.Country)
		rec.Description = fmt.Sprintf(
			"Users in %s show about %.0f%% fewer %s events than comparable markets.",
			p.Country, p.DropRate*100, p.EventName)
		rec.Hint = "Segment behavior by user country."
		rec.Hints = []string{
			"One user segment behaves differently this period.",
			fmt.Sprintf("Compare %s event rates per user across countries.", p.EventName),
			fmt.Sprintf("Focus on %s.", p.Country),
		}
		rec.RootCause = fmt.Sprintf(
			"A payment-provider outage in %s depressed %s activity.", p.Country, p.EventName)

	case models.AnomalyDataCollectionGap:
		rec.AffectedScope = fmt.Sprintf("all events between %02d:00 and %02d:00", p.GapStart, p.GapStart+p.GapHours)
		rec.Description = fmt.Sprintf(
			"No events at all were recorded during a %d-hour window starting at %02d:00.",
			p.GapHours, p.GapStart)
		rec.Hint = "Look for hours with zero recorded events."
		rec.Hints = []string{
			"Total volume is lower than expected.",
			"Count events per hour across the day.",
			fmt.Sprintf("The window starting at %02d:00 is completely empty.", p.GapStart),
		}
		rec.RootCause = fmt.Sprintf(
			"The event pipeline was down for %d hours starting at %02d:00; nothing was collected.",
			p.GapHours, p.GapStart)

	case models.AnomalyRetentionDrop:
		rec.AffectedScope = fmt.Sprintf("the signup cohort of the first %d days of the window", p.CohortDays)
		rec.Description = fmt.Sprintf(
			"One %d-day signup cohort stops coming back after day 1: most of its later sessions are gone.",
			p.CohortDays)
		rec.Hint = "Compute day-7 retention by signup cohort."
		rec.Hints = []string{
			"Active-user counts decay faster than usual.",
			"Group users into signup cohorts and measure returning sessions.",
			"One early cohort retains far worse than its neighbors.",
		}
		rec.RootCause = fmt.Sprintf(
			"An onboarding regression hit users who signed up in one %d-day window, collapsing their return visits.",
			p.CohortDays)

	case models.AnomalyChannelEfficiencyDecline:
		rec.AffectedScope = fmt.Sprintf("orders from users acquired through %q", p.Channel)
		rec.Description = fmt.Sprintf(
			"Traffic from the %s channel is stable, but about %.0f%% of its orders disappeared.",
			p.Channel, p.DropRate*100)
		rec.Hint = "Compare orders per session across channels."
		rec.Hints = []string{
			"Revenue is down although visit volume is not.",
			"Compute orders per session for each acquisition channel.",
			fmt.Sprintf("The %q channel brings the same traffic but far fewer orders.", p.Channel),
		}
		rec.RootCause = fmt.Sprintf(
			"Checkout errors for %s-acquired users cut their completed orders by about %.0f%% while sessions stayed flat.",
			p.Channel, p.DropRate*100)

	case models.AnomalySignupConversionDrop:
		rec.AffectedScope = fmt.Sprintf("the %q funnel step", p.FunnelStep)
		rec.Description = fmt.Sprintf(
			"The funnel shows a cliff at the %s step: about %.0f%% of those events are missing, and some users never progressed past it.",
			p.FunnelStep, p.DropRate*100)
		rec.Hint = "Compute step-to-step funnel conversion."
		rec.Hints = []string{
			"End-to-end conversion fell.",
			"Compute conversion between each pair of adjacent funnel steps.",
			fmt.Sprintf("The drop is localized at the %q step.", p.FunnelStep),
		}
		rec.RootCause = fmt.Sprintf(
			"A UI bug at the %s step blocked most users from completing it.", p.FunnelStep)
	}

	return rec
}
