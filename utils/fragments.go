package util

// ConcurrentFragments picks how many fragments yt-dlp fetches in parallel
// for one job, backing off as more downloads run at once.
func ConcurrentFragments(activeJobs int) int {
	switch {
	case activeJobs <= 1:
		return 4
	case activeJobs <= 3:
		return 3
	default:
		return 2
	}
}
