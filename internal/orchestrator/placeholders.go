package orchestrator

import (
	"fmt"
	"strings"

	"github.com/aristath/careercrew/internal/scheduler"
)

// profilePreviewLen is how much of the run input the profile placeholder
// quotes.
const profilePreviewLen = 200

// DefaultPlaceholders returns the built-in fallback content per task kind.
// Templates may contain scheduler.UserInfoToken.
func DefaultPlaceholders() map[scheduler.Kind]string {
	return map[scheduler.Kind]string{
		scheduler.KindProfileAnalysis: `# User Profile Analysis

Based on the provided information: {user_info}...

**Note**: Our AI analysis system is currently experiencing high demand. This is a basic profile analysis.

## Summary
The user appears to be seeking career guidance and has provided initial information about their background and interests.

## Recommendations
1. Explore interests through online resources and courses
2. Connect with career counselors or mentors
3. Research various career paths related to stated interests
4. Consider internships or volunteer opportunities

*A complete AI analysis will be available shortly.*`,

		scheduler.KindCareerExploration: `# Career Path Recommendations

**Note**: Using general career guidance while our AI completes your personalized analysis.

## Popular Career Paths for Students
1. **Technology Sector**: Software development, data science, cybersecurity
2. **Healthcare**: Medicine, nursing, physical therapy, mental health
3. **Business**: Marketing, finance, project management, entrepreneurship
4. **Creative Fields**: Design, writing, media production, arts
5. **Education**: Teaching, training, educational administration

## Next Steps
- Research specific roles in your areas of interest
- Connect with professionals in these fields
- Explore relevant educational programs

*Personalized recommendations based on your profile coming soon.*`,

		scheduler.KindSkillDevelopment: `# Skill Development Roadmap

**Note**: General skill recommendations while our AI analyzes your specific needs.

## Core Skills for Career Success
1. **Communication**: Written and verbal communication
2. **Problem-solving**: Critical thinking and analytical skills
3. **Technology**: Basic computer skills and digital literacy
4. **Leadership**: Teamwork and project management
5. **Adaptability**: Learning agility and flexibility

## Learning Resources
- Online platforms: Coursera, edX, Khan Academy, YouTube
- Professional certifications in your field of interest
- Books and industry publications
- Workshops and networking events

*Tailored skill development plan coming soon.*`,

		scheduler.KindMarketAnalysis: `# Job Market Analysis

**Note**: Using current market data while our AI completes detailed analysis.

## Current Job Market Trends
- Technology roles showing strong growth
- Healthcare experiencing high demand
- Remote work opportunities expanding
- Skills-based hiring increasing

## Salary Expectations
- Entry-level: $35,000 - $55,000 depending on field
- Mid-level: $55,000 - $85,000 with experience
- Senior-level: $85,000+ with specialization

*Detailed market analysis for your specific interests coming soon.*`,

		scheduler.KindLearningResources: `# Learning Resources & Recommendations

**Note**: Curated resources while our AI personalizes recommendations.

## Popular Learning Platforms
1. **Coursera**: University courses and professional certificates
2. **edX**: Academic courses from top universities
3. **Khan Academy**: Free courses on various subjects
4. **LinkedIn Learning**: Professional skill development
5. **YouTube**: Free tutorials and educational content

## Certification Programs
- Google Career Certificates
- Microsoft Certifications
- AWS Cloud Certifications
- Adobe Creative Certifications

*Personalized learning path coming soon.*`,
	}
}

// GenericPlaceholder is the content used for kinds without a template.
func GenericPlaceholder(kind scheduler.Kind) string {
	return fmt.Sprintf("Fallback content for %s - Full analysis coming soon.", kind)
}

// Placeholder returns the fallback content for kind with the run input
// substituted. The profile template quotes only the first 200 characters.
func (e *Engine) Placeholder(kind scheduler.Kind, userInfo string) string {
	tmpl, ok := e.placeholders[kind]
	if !ok {
		return GenericPlaceholder(kind)
	}
	return renderPlaceholder(tmpl, userInfo)
}

func renderPlaceholder(tmpl, userInfo string) string {
	if userInfo == "" {
		userInfo = "User information not provided"
	}
	return strings.ReplaceAll(tmpl, scheduler.UserInfoToken, truncateRunes(userInfo, profilePreviewLen))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
