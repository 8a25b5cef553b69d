package cache

import (
	"fmt"
	"time"
)

const (
	userProfilePrefix = "user:%d:profile"
	userStatsPrefix   = "user:%d:stats"
	ideaPrefix        = "idea:%d"
	likeCountPrefix   = "idea:%d:likes"
	trendingKeyName   = "ideas:trending"
	topIdeasPrefix    = "ideas:top:%s"
	adminStatsKeyName = "admin:stats"
)

const (
	UserProfileTTL = 5 * time.Minute
	UserStatsTTL   = 10 * time.Minute
	IdeaTTL        = 30 * time.Minute
	LikeCountTTL   = 5 * time.Minute
	TrendingTTL    = 10 * time.Minute
	TopIdeasTTL    = 15 * time.Minute
	AdminStatsTTL  = 5 * time.Minute
)

func UserProfileKey(userID uint) string {
	return fmt.Sprintf(userProfilePrefix, userID)
}

func UserStatsKey(userID uint) string {
	return fmt.Sprintf(userStatsPrefix, userID)
}

func IdeaKey(ideaID uint) string {
	return fmt.Sprintf(ideaPrefix, ideaID)
}

func LikeCountKey(ideaID uint) string {
	return fmt.Sprintf(likeCountPrefix, ideaID)
}

func TrendingKey() string {
	return trendingKeyName
}

func TopIdeasKey(timeframe string) string {
	return fmt.Sprintf(topIdeasPrefix, timeframe)
}

func AdminStatsKey() string {
	return adminStatsKeyName
}
