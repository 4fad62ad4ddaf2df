package project

const vanillaIndex = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Vanilla App</title>
  <link rel="stylesheet" href="style.css">
</head>
<body>
  <div id="app"><h1>Hello Vanilla!</h1></div>
  <script src="script.js"></script>
</body>
</html>`

const reactApp = `import React from 'react';

export default function App() {
  return (
    <div className="p-8 bg-slate-900 min-h-screen text-white">
      <h1 className="text-3xl font-bold">React Project</h1>
      <p>Start building with TypeScript and Tailwind!</p>
    </div>
  );
}`

const reactIndex = `<!DOCTYPE html>
<html>
<head>
  <script src="https://cdn.tailwindcss.com"></script>
</head>
<body>
  <div id="root"></div>
</body>
</html>`

const nextPage = `export default function Page() {
  return (
    <main className="flex min-h-screen flex-col items-center justify-between p-24 bg-black text-white">
      <h1 className="text-4xl">Next.js App Router</h1>
      <p>Simulated environment.</p>
    </main>
  );
}`

const nextLayout = `export default function Layout({ children }: { children: React.ReactNode }) {
  return <div className="antialiased">{children}</div>;
}`

// Template returns the starter FileSet for a stack.
func Template(s Stack) FileSet {
	switch s {
	case StackReact:
		return NewFileSet(
			NewFile("App.tsx", reactApp),
			NewFile("index.html", reactIndex),
		)
	case StackNextJS:
		return NewFileSet(
			NewFile("app/page.tsx", nextPage),
			NewFile("app/layout.tsx", nextLayout),
			NewFile("index.html", reactIndex),
		)
	default:
		return NewFileSet(
			NewFile("index.html", vanillaIndex),
			NewFile("style.css", "body { background: #0f172a; color: white; font-family: sans-serif; }"),
			NewFile("script.js", `console.log("App loaded");`),
		)
	}
}
