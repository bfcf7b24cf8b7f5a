package web

// Card is a titled blurb on the landing page.
type Card struct {
	Title       string
	Description string
}

// Testimonial is a quote shown on the landing page.
type Testimonial struct {
	Name    string
	Role    string
	Company string
	Image   string
	Quote   string
}

// FAQItem is one question of the FAQ accordion.
type FAQItem struct {
	Question string
	Answer   string
}

// NavItem is a dashboard sidebar entry.
type NavItem struct {
	Label string
	Href  string
}

// Stat is a dashboard summary tile.
type Stat struct {
	Label string
	Value string
}

// Activity is one row of the dashboard activity table.
type Activity struct {
	User   string
	Email  string
	Action string
	Date   string
}

var Features = []Card{
	{"Focus & Time Management", "AI-powered Time Boxing, Smart Todo Lists, Visual Kanban Boards, Focus Timer with Breaks"},
	{"Reading & Writing Support", "Text to ADHD-friendly Format, OpenDyslexic Font Support, Text-to-Speech Integration, AI Mind Mapping"},
	{"Personalized Experience", "Condition-specific Settings, Customizable Interface, Adaptive Learning System, Progress Tracking"},
	{"AI Assistance", "Task Breakdown Suggestions, Study Buddy AI, Writing Assistant, Focus Recommendations"},
	{"Curated Content", "Personalized News Feed, Trusted Resource Library, Community Success Stories, Expert Articles"},
	{"Life Management", "Smart Budget Calculator, Routine Planner, Habit Tracker, Goal Setting Tools"},
}

var ComingSoon = []Card{
	{"Smart Routine Builder", "AI-powered daily schedule optimization that adapts to your energy levels and focus patterns."},
	{"Community Hub", "Connect with others, share experiences, and build a supportive network of neurodivergent individuals."},
	{"Focus Sounds", "Customizable background noise and music designed to enhance concentration and reduce distractions."},
	{"Visual Learning Tools", "Interactive diagrams and mind maps that make complex information easier to understand and remember."},
}

var Testimonials = []Testimonial{
	{
		Name:    "Sarah Johnson",
		Role:    "Software Developer",
		Company: "TechCorp",
		Image:   "https://images.unsplash.com/photo-1494790108377-be9c29b29330?ixlib=rb-1.2.1&auto=format&fit=crop&w=128&q=80",
		Quote:   "This platform has transformed how I manage my ADHD at work. The AI assistance is like having a personal productivity coach.",
	},
	{
		Name:    "Michael Chen",
		Role:    "Student",
		Company: "Stanford University",
		Image:   "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?ixlib=rb-1.2.1&auto=format&fit=crop&w=128&q=80",
		Quote:   "The reading tools have made a huge difference in my studies. As someone with dyslexia, I can finally keep up with my coursework.",
	},
	{
		Name:    "Emma Davis",
		Role:    "Creative Director",
		Company: "Design Studio",
		Image:   "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?ixlib=rb-1.2.1&auto=format&fit=crop&w=128&q=80",
		Quote:   "The visual organization tools are perfect for my autistic brain. Everything is exactly where I need it to be.",
	},
}

var FAQ = []FAQItem{
	{"Who is making this?", "Developing a productivity tool to help neurodiverse process information and organise their ideas. Created by an IT technician with a web design background who has ADHD."},
	{"How much will it cost?", "We're still working on the pricing model. Stay tuned for updates!"},
	{"Does it do [really cool feature idea]?", "We have many exciting features planned. Let us know your ideas!"},
	{"Will this work on my phone?", "Yes, Haphazard AI will be accessible on any device with a browser."},
	{"What's next?", "We're launching a limited alpha soon. Sign up to be the first to know!"},
	{"How can this platform help me?", "Our platform provides personalized tools and strategies tailored to your specific needs, whether you're managing ADHD, autism, or dyslexia. From text conversion to time management, each tool is designed to support your unique way of thinking and working."},
	{"Is my data private and secure?", "Yes, we take privacy seriously. All your data is encrypted and stored securely. We never share your personal information with third parties, and you have complete control over your data."},
	{"Can I use it on multiple devices?", "Absolutely! Our platform is accessible on any device with a web browser, allowing you to stay organized and supported wherever you go."},
}

var DashboardNav = []NavItem{
	{"Dashboard", "/dashboard"},
	{"Users", "/dashboard/users"},
	{"Analytics", "/dashboard/analytics"},
	{"Settings", "/dashboard/settings"},
}
