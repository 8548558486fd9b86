package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/clipcash/clipcash_backend/models"
	"github.com/clipcash/clipcash_backend/utils"
)

// defaultFetchConcurrency bounds the per-campaign metadata fan-out
const defaultFetchConcurrency = 5

// MetricsService recomputes per-video engagement and campaign aggregates.
// It is the only writer of campaign metric fields.
type MetricsService struct {
	campaigns   CampaignStore
	fetcher     MetricsFetcher
	concurrency int
}

// NewMetricsService creates the campaign metrics aggregator
func NewMetricsService(campaigns CampaignStore, fetcher MetricsFetcher) *MetricsService {
	return &MetricsService{
		campaigns:   campaigns,
		fetcher:     fetcher,
		concurrency: defaultFetchConcurrency,
	}
}

// RefreshCampaigns refreshes the given campaigns, or every campaign when ids is
// empty. One campaign's failure never aborts the batch; callers get a
// per-campaign outcome list and can alert on partial failures.
func (s *MetricsService) RefreshCampaigns(ctx context.Context, ids []string) []models.CampaignRefreshOutcome {
	if len(ids) == 0 {
		campaigns, err := s.campaigns.ListCampaigns(ctx)
		if err != nil {
			log.Printf("metrics refresh: failed to list campaigns: %v", err)
			return []models.CampaignRefreshOutcome{{Status: models.RefreshStatusError, Error: "failed to list campaigns: " + err.Error()}}
		}
		outcomes := make([]models.CampaignRefreshOutcome, 0, len(campaigns))
		for i := range campaigns {
			outcomes = append(outcomes, s.refreshCampaign(ctx, &campaigns[i]))
		}
		return outcomes
	}

	// Requested ids that cannot be loaded get an error outcome; the rest of
	// the batch continues.
	outcomes := make([]models.CampaignRefreshOutcome, 0, len(ids))
	for _, id := range ids {
		c, err := s.campaigns.GetCampaign(ctx, id)
		if err != nil {
			log.Printf("metrics refresh: campaign %s: %v", id, err)
			outcomes = append(outcomes, models.CampaignRefreshOutcome{
				CampaignID: id,
				Status:     models.RefreshStatusError,
				Error:      "campaign not found",
			})
			continue
		}
		outcomes = append(outcomes, s.refreshCampaign(ctx, c))
	}

	return outcomes
}

// refreshCampaign recomputes one campaign's metrics, earnings and completion
// state, then persists everything in a single merge write.
func (s *MetricsService) refreshCampaign(ctx context.Context, campaign *models.Campaign) models.CampaignRefreshOutcome {
	outcome := models.CampaignRefreshOutcome{CampaignID: campaign.ID.Hex()}

	// Completed campaigns are frozen: no fetches, no writes.
	if campaign.IsComplete {
		outcome.Status = models.RefreshStatusSkipped
		return outcome
	}

	now := time.Now()

	if len(campaign.Videos) == 0 {
		campaign.TotalViews = 0
		campaign.TotalLikes = 0
		campaign.TotalComments = 0
		campaign.TotalShares = 0
		campaign.TotalEarnings = 0
		campaign.BudgetUsed = 0
		campaign.IsComplete = models.IsCampaignComplete(campaign)
		campaign.UpdatedAt = now
		if err := s.campaigns.SaveMetrics(ctx, campaign); err != nil {
			outcome.Status = models.RefreshStatusError
			outcome.Error = "failed to persist metrics: " + err.Error()
			return outcome
		}
		outcome.Status = models.RefreshStatusSuccess
		return outcome
	}

	// Fan out fetches with a bounded semaphore. Results are written back by
	// index, never by completion order.
	type fetchResult struct {
		data *models.TikTokVideoData
		err  error
	}
	results := make([]fetchResult, len(campaign.Videos))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)
	for i := range campaign.Videos {
		wg.Add(1)
		go func(idx int, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			data, err := s.fetcher.Fetch(ctx, url)
			results[idx] = fetchResult{data: data, err: err}
		}(i, campaign.Videos[i].URL)
	}
	wg.Wait()

	for i := range campaign.Videos {
		video := &campaign.Videos[i]

		if results[i].err != nil {
			// Keep last-known metrics for this one and carry on.
			outcome.VideoErrors = append(outcome.VideoErrors, models.VideoError{
				URL:    video.URL,
				Reason: results[i].err.Error(),
			})
			continue
		}

		data := results[i].data
		video.Views = data.Views
		video.Shares = data.Shares
		video.Comments = data.Comments
		video.Likes = data.Likes
		video.MusicID = data.MusicID
		video.SoundIDMatch = campaign.SoundID != "" && data.MusicID == campaign.SoundID
		video.UpdatedAt = now

		// Paid videos keep the earnings they were paid on.
		if !video.HasBeenPaid {
			video.Earnings = utils.CalculateEarnings(campaign.RatePerMillion, video.Views, campaign.MaxCreatorEarningsPerPost)
		}
	}

	// Billable views count approved submissions only; the other aggregates sum
	// everything. Per-video earnings above always use the video's own views.
	var billableViews, totalLikes, totalComments, totalShares int64
	var totalEarnings float64
	for i := range campaign.Videos {
		video := &campaign.Videos[i]
		if video.Status == models.SubmissionStatusApproved {
			billableViews += video.Views
		}
		totalLikes += video.Likes
		totalComments += video.Comments
		totalShares += video.Shares
		totalEarnings += video.Earnings
	}

	campaign.TotalViews = billableViews
	campaign.TotalLikes = totalLikes
	campaign.TotalComments = totalComments
	campaign.TotalShares = totalShares
	campaign.TotalEarnings = utils.Round2(totalEarnings)
	campaign.BudgetUsed = utils.RoundDollars(float64(billableViews) / 1_000_000 * campaign.RatePerMillion)
	campaign.IsComplete = models.IsCampaignComplete(campaign)
	campaign.UpdatedAt = now

	if err := s.campaigns.SaveMetrics(ctx, campaign); err != nil {
		outcome.Status = models.RefreshStatusError
		outcome.Error = "failed to persist metrics: " + err.Error()
		return outcome
	}

	outcome.Status = models.RefreshStatusSuccess
	return outcome
}
