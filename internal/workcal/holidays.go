package workcal

import (
	"errors"
	"time"
)

var (
	ErrUnsupportedYear = errors.New("unsupported year")
	ErrBadMonth        = errors.New("invalid month")
)

// israeliHolidays lists the statutory non-working days for the supported
// year range, keyed by Gregorian date. The Hebrew-calendar dates are fixed
// historical/published facts within that range, which is why the range is
// bounded rather than computed.
var israeliHolidays = map[string]string{
	// 2020
	"2020-04-09": "Passover I",
	"2020-04-15": "Passover VII",
	"2020-04-29": "Independence Day",
	"2020-05-29": "Shavuot",
	"2020-09-19": "Rosh Hashanah",
	"2020-09-20": "Rosh Hashanah II",
	"2020-09-28": "Yom Kippur",
	"2020-10-03": "Sukkot",
	"2020-10-10": "Simchat Torah",
	// 2021
	"2021-03-28": "Passover I",
	"2021-04-03": "Passover VII",
	"2021-04-15": "Independence Day",
	"2021-05-17": "Shavuot",
	"2021-09-07": "Rosh Hashanah",
	"2021-09-08": "Rosh Hashanah II",
	"2021-09-16": "Yom Kippur",
	"2021-09-21": "Sukkot",
	"2021-09-28": "Simchat Torah",
	// 2022
	"2022-04-16": "Passover I",
	"2022-04-22": "Passover VII",
	"2022-05-05": "Independence Day",
	"2022-06-05": "Shavuot",
	"2022-09-26": "Rosh Hashanah",
	"2022-09-27": "Rosh Hashanah II",
	"2022-10-05": "Yom Kippur",
	"2022-10-10": "Sukkot",
	"2022-10-17": "Simchat Torah",
	// 2023
	"2023-04-06": "Passover I",
	"2023-04-12": "Passover VII",
	"2023-04-26": "Independence Day",
	"2023-05-26": "Shavuot",
	"2023-09-16": "Rosh Hashanah",
	"2023-09-17": "Rosh Hashanah II",
	"2023-09-25": "Yom Kippur",
	"2023-09-30": "Sukkot",
	"2023-10-07": "Simchat Torah",
	// 2024
	"2024-04-23": "Passover I",
	"2024-04-29": "Passover VII",
	"2024-05-14": "Independence Day",
	"2024-06-12": "Shavuot",
	"2024-10-03": "Rosh Hashanah",
	"2024-10-04": "Rosh Hashanah II",
	"2024-10-12": "Yom Kippur",
	"2024-10-17": "Sukkot",
	"2024-10-24": "Simchat Torah",
	// 2025
	"2025-04-13": "Passover I",
	"2025-04-19": "Passover VII",
	"2025-05-01": "Independence Day",
	"2025-06-02": "Shavuot",
	"2025-09-23": "Rosh Hashanah",
	"2025-09-24": "Rosh Hashanah II",
	"2025-10-02": "Yom Kippur",
	"2025-10-07": "Sukkot",
	"2025-10-14": "Simchat Torah",
	// 2026
	"2026-04-02": "Passover I",
	"2026-04-08": "Passover VII",
	"2026-04-22": "Independence Day",
	"2026-05-22": "Shavuot",
	"2026-09-12": "Rosh Hashanah",
	"2026-09-13": "Rosh Hashanah II",
	"2026-09-21": "Yom Kippur",
	"2026-09-26": "Sukkot",
	"2026-10-03": "Simchat Torah",
	// 2027
	"2027-04-22": "Passover I",
	"2027-04-28": "Passover VII",
	"2027-05-12": "Independence Day",
	"2027-06-11": "Shavuot",
	"2027-10-02": "Rosh Hashanah",
	"2027-10-03": "Rosh Hashanah II",
	"2027-10-11": "Yom Kippur",
	"2027-10-16": "Sukkot",
	"2027-10-23": "Simchat Torah",
	// 2028
	"2028-04-11": "Passover I",
	"2028-04-17": "Passover VII",
	"2028-05-02": "Independence Day",
	"2028-05-31": "Shavuot",
	"2028-09-21": "Rosh Hashanah",
	"2028-09-22": "Rosh Hashanah II",
	"2028-09-30": "Yom Kippur",
	"2028-10-05": "Sukkot",
	"2028-10-12": "Simchat Torah",
	// 2029
	"2029-03-31": "Passover I",
	"2029-04-06": "Passover VII",
	"2029-04-19": "Independence Day",
	"2029-05-20": "Shavuot",
	"2029-09-10": "Rosh Hashanah",
	"2029-09-11": "Rosh Hashanah II",
	"2029-09-19": "Yom Kippur",
	"2029-09-24": "Sukkot",
	"2029-10-01": "Simchat Torah",
	// 2030
	"2030-04-18": "Passover I",
	"2030-04-24": "Passover VII",
	"2030-05-08": "Independence Day",
	"2030-06-07": "Shavuot",
	"2030-09-28": "Rosh Hashanah",
	"2030-09-29": "Rosh Hashanah II",
	"2030-10-07": "Yom Kippur",
	"2030-10-12": "Sukkot",
	"2030-10-19": "Simchat Torah",
}

func holidayName(d time.Time) (string, bool) {
	name, ok := israeliHolidays[d.Format("2006-01-02")]
	return name, ok
}
