package core

// ExpandRecurrence produces the dated instances of a bill according to its
// recurrence policy. The first instance always falls on the bill's own due
// date; each subsequent date advances one interval from the previous one.
//
// Bound selection:
//   - not recurring: exactly one instance at the due date, other policy
//     fields ignored;
//   - Count > 0: exactly Count instances;
//   - EndDate set: instances while the date is on or before EndDate, the
//     first date past it is discarded;
//   - neither bound: a single instance. Unbounded generation never happens.
//
// Every instance copies the base bill's fields and starts out pending.
func ExpandRecurrence(base Bill, policy RecurrencePolicy) []Bill {
	base.Status = BillPending

	if !policy.IsRecurring {
		return []Bill{base}
	}

	var dates []Date
	switch {
	case policy.Count > 0:
		current := base.DueDate
		for i := 0; i < policy.Count; i++ {
			dates = append(dates, current)
			current = NextOccurrence(current, policy.Interval)
		}
	case !policy.EndDate.IsEmpty():
		current := base.DueDate
		for !current.After(policy.EndDate.Time) {
			dates = append(dates, current)
			current = NextOccurrence(current, policy.Interval)
		}
	default:
		dates = append(dates, base.DueDate)
	}

	instances := make([]Bill, 0, len(dates))
	for _, d := range dates {
		instance := base
		instance.DueDate = d
		instances = append(instances, instance)
	}
	return instances
}

// NextOccurrence advances a date by one recurrence interval. Month and
// quarter steps use calendar month arithmetic with native overflow rollover:
// Jan 31 plus one month lands on Mar 2 in leap years and Mar 3 otherwise,
// never on the clamped end of February. Unrecognized intervals step monthly.
func NextOccurrence(d Date, interval Interval) Date {
	switch interval {
	case Weekly:
		return Date{Time: d.AddDate(0, 0, 7)}
	case Quarterly:
		return Date{Time: d.AddDate(0, 3, 0)}
	case Annual:
		return Date{Time: d.AddDate(1, 0, 0)}
	default:
		return Date{Time: d.AddDate(0, 1, 0)}
	}
}
