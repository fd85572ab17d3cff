package scheduler

// UserInfoToken is replaced with the run input in task descriptions.
const UserInfoToken = "{user_info}"

// Agents of the career advisor crew.
var (
	ProfileAnalyst = Agent{
		Role:      "Personal Profile Analyst",
		Goal:      "Create a concise and structured summary of the user's background, interests, skills, and goals to guide the other agents. Be especially supportive of students who are uncertain about their future and help them discover hidden strengths and potential interests.",
		Backstory: "You are an expert HR professional skilled at understanding individual profiles, with special expertise in working with high school students who may be uncertain about their career direction. You excel at reading between the lines to identify potential strengths, interests, and aspirations even when they're not explicitly stated. You're encouraging and help students see possibilities they might not have considered.",
	}
	CareerSpecialist = Agent{
		Role:      "Career Options Specialist",
		Goal:      "Research and identify a diverse range of suitable career paths based on the user's profile",
		Backstory: "You are a seasoned career counselor with deep knowledge of various industries, job roles, educational requirements, and future market trends. You can tailor your advice perfectly for a high-school student exploring their first career or a professional looking for a significant change.",
	}
	SkillAdvisor = Agent{
		Role:      "Learning and Skill Advisor",
		Goal:      "Identify the necessary skills for the suggested career paths and recommend relevant, high-quality learning resources",
		Backstory: "You are an expert in corporate and academic learning & development. You are constantly updated on the most effective online courses, certifications, and resources for professional growth across all domains.",
	}
	MarketAnalyst = Agent{
		Role:      "Job Market Analyst",
		Goal:      "Provide current, data-driven insights into the job market for the recommended career paths, including salary expectations, key companies, and future outlook",
		Backstory: "You are a market research analyst specializing in labor trends and economic forecasting. You provide realistic and data-driven insights into various industries to help users make informed decisions.",
	}
	RoadmapStrategist = Agent{
		Role:      "Career Roadmap Strategist",
		Goal:      "Create a comprehensive, step-by-step career roadmap with specific timelines, milestones, and strategic action plans",
		Backstory: "You are a strategic career planning expert who specializes in creating actionable roadmaps. You excel at breaking down complex career transitions into manageable phases with clear timelines, milestones, and success metrics. You understand how to sequence learning, networking, and career moves for maximum impact.",
	}
	ResourceCurator = Agent{
		Role:      "Learning Resource Curator",
		Goal:      "Research and recommend the most current, high-quality learning resources, courses, certifications, and educational pathways",
		Backstory: "You are an education technology specialist and learning curator with deep knowledge of online learning platforms, certification programs, bootcamps, and educational trends. You stay updated on the latest courses, their quality ratings, instructor credentials, and industry recognition. You can recommend both free and paid resources that provide the best ROI for career advancement.",
	}
	ReportSynthesizer = Agent{
		Role:      "Career Report Synthesizer",
		Goal:      "Compile all the individual analyses into a single, concise, personalized, and inspiring career report. Create an executive summary format that is comprehensive yet digestible (aim for 2-3 pages maximum). Focus on the most actionable insights and key recommendations without compromising on quality or depth.",
		Backstory: "You are a professional writer and editor who specializes in creating clear, compelling, and well-structured reports. You excel at distilling complex information into concise, actionable summaries that busy people can actually read and act upon. You know how to prioritize the most important insights while maintaining professional depth.",
	}
)

// CareerTasks returns the seven-step career advisor sequence in run order.
// Each call returns fresh copies.
func CareerTasks() []Task {
	return []Task{
		{
			ID:             "profile",
			Kind:           KindProfileAnalysis,
			Name:           "Profile Analysis",
			Agent:          ProfileAnalyst,
			Description:    "Analyze the user's provided information: {user_info}. Create a structured summary that includes their current educational/professional stage, key interests, existing skills, and stated goals. If the user seems uncertain or provides minimal information (common for high school students), be encouraging and help identify potential strengths, interests, and opportunities based on what they've shared. Look for clues in their interests, achievements, or even subjects they might enjoy.",
			ExpectedOutput: "A clean markdown summary of the user's complete profile that is encouraging and identifies potential even when the user is uncertain about their direction.",
		},
		{
			ID:             "careers",
			Kind:           KindCareerExploration,
			Name:           "Career Path Exploration",
			Agent:          CareerSpecialist,
			Description:    "Using the user profile summary, research and identify 3 to 5 potential career paths that align with the user's interests and current stage. For each path, describe the role, typical day-to-day responsibilities, and future prospects. Make sure your advice is tailored to the user's specific situation (student vs. professional).",
			ExpectedOutput: "A detailed markdown section listing and describing the recommended career paths with pros and cons for each.",
			DependsOn:      []string{"profile"},
		},
		{
			ID:             "skills",
			Kind:           KindSkillDevelopment,
			Name:           "Skill Development Roadmap",
			Agent:          SkillAdvisor,
			Description:    "For the career paths identified previously, research the essential technical and soft skills required to succeed. Create a skill development roadmap. For each skill, recommend 1-2 high-quality online courses (e.g., from Coursera, edX), certifications, or seminal books. You MUST provide direct links to these resources.",
			ExpectedOutput: "A markdown section formatted as an actionable skill-development plan, with skills grouped by their corresponding career path and including hyperlinks to learning resources.",
			DependsOn:      []string{"careers"},
		},
		{
			ID:             "market",
			Kind:           KindMarketAnalysis,
			Name:           "Job Market Analysis",
			Agent:          MarketAnalyst,
			Description:    "For each recommended career path, gather current job market data. Include typical salary ranges for entry-level, mid-level, and senior roles. List 3-5 top companies that are currently hiring for these positions. Provide a realistic outlook for these roles over the next 5 years.",
			ExpectedOutput: "A data-driven markdown section detailing job market insights, including salary data, key employers, and future demand for each suggested career.",
			DependsOn:      []string{"careers"},
		},
		{
			ID:             "roadmap",
			Kind:           KindRoadmapStrategy,
			Name:           "Career Roadmap Strategy",
			Agent:          RoadmapStrategist,
			Description:    "Based on the user's profile, recommended career paths, required skills, and job market insights, create a comprehensive career roadmap. Include specific phases (short-term: 3-6 months, medium-term: 6-18 months, long-term: 2-5 years), actionable milestones, networking strategies, and decision points. Provide timeline estimates for skill acquisition, job applications, and career transitions.",
			ExpectedOutput: "A detailed markdown section with a strategic career roadmap including timelines, milestones, and specific action items organized by phases.",
			DependsOn:      []string{"profile", "careers", "skills", "market"},
		},
		{
			ID:             "resources",
			Kind:           KindLearningResources,
			Name:           "Learning Resource Curation",
			Agent:          ResourceCurator,
			Description:    "Research and curate the most current and high-quality learning resources for the identified career paths and required skills. Find specific courses, bootcamps, certifications, books, and learning platforms. Include both free and paid options, duration estimates, difficulty levels, and industry recognition. Provide direct links and enrollment information.",
			ExpectedOutput: "A comprehensive markdown section with categorized learning resources including course details, links, costs, duration, and recommendations for different learning styles and budgets.",
			DependsOn:      []string{"careers", "skills", "roadmap"},
		},
		{
			ID:             "report",
			Kind:           KindReportGeneration,
			Name:           "Final Report Synthesis",
			Agent:          ReportSynthesizer,
			Description:    "Create a concise, executive-style career report that distills all analyses into a digestible format (2-3 pages maximum). Focus on the most critical insights and actionable recommendations without compromising quality. Structure as an executive summary with key highlights that busy people will actually read.",
			ExpectedOutput: "A concise, professional career advisory report in markdown format (under 1000 words) that includes: 1) Executive Summary (key insights), 2) Top 3 Career Recommendations with brief rationale, 3) Immediate Action Plan (next 3-6 months), 4) Key Skills to Develop, 5) Essential Resources, and 6) Next Steps. Maintain professional depth while being highly readable.",
			DependsOn:      []string{"profile", "careers", "skills", "market", "roadmap", "resources"},
		},
	}
}

// Kinds returns the task kinds of tasks, in order and without duplicates.
func Kinds(tasks []Task) []Kind {
	seen := make(map[Kind]bool, len(tasks))
	var kinds []Kind
	for _, t := range tasks {
		if !seen[t.Kind] {
			seen[t.Kind] = true
			kinds = append(kinds, t.Kind)
		}
	}
	return kinds
}
