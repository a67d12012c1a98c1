package llm

import (
	"fmt"

	"resumescore/internal/config"
)

// DefaultSystemPrompt is sent as the system instruction when none is configured
const DefaultSystemPrompt = `You are an expert resume analyzer and career advisor with deep knowledge of ATS systems, hiring practices, and industry standards.`

// DefaultPrompts holds the built-in user prompt templates keyed by
// operation. Templates use indexed verbs so overrides may reorder or omit
// arguments.
var DefaultPrompts = map[string]string{
	// %[1]s profession, %[2]s experience level phrase
	config.PromptProfessionKeywords: `Generate a comprehensive list of relevant ATS keywords for the profession: %[1]s%[2]s.

Format your response as a JSON object with the following structure:
{
    "technical_skills": ["keyword1", "keyword2"],
    "soft_skills": ["keyword1", "keyword2"],
    "certifications": ["cert1", "cert2"],
    "experience_terms": ["term1", "term2"],
    "education_requirements": ["req1", "req2"]
}

Include only the JSON output and no additional text.`,

	// %[1]s profession, %[2]s original summary, %[3]s optimized summary
	config.PromptImprovementNotes: `You are an expert resume consultant comparing an original resume summary to an AI-optimized version for a "%[1]s" position.
Based SOLELY on the differences implied by these summaries, provide 3-5 concise bullet points explaining the KEY improvements likely made for ATS compatibility.

Focus on common ATS optimization techniques:
- Stronger action verbs.
- Quantification of achievements.
- Keyword integration for "%[1]s".
- Clarity and conciseness.

Original Summary: %[2]s

Optimized Summary: %[3]s

Return ONLY a JSON array of strings, where each string is a brief improvement note (1-2 sentences). Example: ["Note 1", "Note 2"]
Notes:`,

	// %[1]s profession, %[2]s evaluation data
	config.PromptATSScore: `You are an expert ATS evaluator. Score this resume (1-100) for "%[1]s".
Pay special attention to:
- Depth and detail in project/experience descriptions
- Quantification of achievements
- Specificity of skills

Evaluation Data:
%[2]s

Scoring Guidelines:
- 90-100: Exceptional detail, strong metrics, perfect skill match
- 80-89: Strong descriptions, good metrics, good skill match
- 70-79: Adequate descriptions, some metrics, basic skill match
- Below 70: Needs improvement in descriptions or relevance

Return ONLY the score (0-100) as a number. No other text.`,

	// %[1]s section name, %[2]s profession, %[3]s section JSON, %[4]s section guidance
	config.PromptOptimizeSection: `You are an expert ATS (Applicant Tracking System) optimizer for resumes.
Optimize this %[1]s section for a "%[2]s" position.

Original %[1]s (JSON format):
%[3]s

Instructions:
%[4]s
- Maintain all original factual information. Only add details that could reasonably be inferred.
- Use strong action verbs relevant to "%[2]s".
- Integrate relevant keywords naturally.
- Keep the same JSON structure. Only return the optimized %[1]s.

Optimized %[1]s (JSON only):`,

	// %[1]s resume text
	config.PromptInsights: `Review this resume for ATS compatibility and give 3-5 high-impact improvement suggestions.

Resume:
---
%[1]s
---

Return ONLY a JSON array of short suggestion strings.`,

	// %[1]s job description, %[2]s resume JSON
	config.PromptJobMatch: `Analyze the provided Job Description and the Current Resume data for a potential candidate.
Your goal is to assess the match and provide actionable feedback for tailoring the resume.

Job Description:
---
%[1]s
---

Current Resume Data (JSON):
---
%[2]s
---

Instructions:
Return a JSON object containing the following fields ONLY:
1. "match_score": An estimated percentage (0-100) indicating how well the current resume matches the job description requirements.
2. "key_missing_skills": A JSON array of the top 5 most critical skills or qualifications from the job description that are missing or underrepresented in the resume.
3. "tailoring_suggestions": A JSON array of 3-5 concrete, actionable suggestions for tailoring the existing resume content to this job description.
4. "keyword_emphasis": A JSON array of 3-5 keywords or phrases already present in the resume that should be emphasized.

Respond ONLY with the valid JSON object described above. No extra text, explanations, or markdown.

Analysis Result (JSON only):`,
}

// sectionGuidance tailors the optimize prompt per section
var sectionGuidance = map[string]string{
	"projects": `- For each project, expand the description with more technical details and measurable outcomes.
- Add 1-2 more bullet points per project if possible, focusing on technologies used, challenges overcome, quantifiable results and your specific contributions.`,
	"achievements": `- For each achievement, expand the description to include the context or competition level, specific skills demonstrated, quantifiable impact and any recognition received.`,
	"experiences":  `- Rewrite each description bullet to lead with a strong action verb and quantify results where the original implies them.`,
	"skills":       `- Group and name skills the way ATS systems expect. Keep every original skill and add closely related keywords only when clearly implied.`,
}

func systemPrompt(cfg *config.AIConfig) string {
	if cfg.SystemPrompt != "" {
		return cfg.SystemPrompt
	}
	return DefaultSystemPrompt
}

// renderPrompt fills the configured or built-in template for an operation
func renderPrompt(cfg *config.AIConfig, operation string, args ...any) string {
	template := cfg.Prompts.Template(operation)
	if template == "" {
		template = DefaultPrompts[operation]
	}
	return fmt.Sprintf(template, args...)
}
